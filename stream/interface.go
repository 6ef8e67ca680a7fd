// Package stream provides the valid/ready streaming handshake shared by every
// stage of the capture data path, together with testbench producers,
// consumers and a protocol checker.
package stream

import "fmt"

// Beat is one transfer of a stream: a payload word and the end-of-packet
// flag that travels with it.
type Beat struct {
	Payload uint16
	Last    bool
}

// String formats the beat for logs and test failures.
func (b Beat) String() string {
	if b.Last {
		return fmt.Sprintf("%04x/last", b.Payload)
	}

	return fmt.Sprintf("%04x", b.Payload)
}

// Interface is the set of signals between a producer and a consumer.
//
// The producer drives Payload, Valid and Last. The consumer drives Ready.
// A beat is accepted in the cycle where both Valid and Ready are high.
// Payload and Last are only meaningful while Valid is high.
type Interface struct {
	Payload uint16
	Valid   bool
	Ready   bool
	Last    bool

	width int
}

// NewInterface creates a stream whose payload is width bits wide. Only 8 and
// 16 bit streams exist in the capture path.
func NewInterface(width int) *Interface {
	if width != 8 && width != 16 {
		panic(fmt.Sprintf("unsupported stream width %d", width))
	}

	return &Interface{width: width}
}

// Width returns the payload width in bits.
func (s *Interface) Width() int {
	return s.width
}

// Mask returns the bit mask covering the payload.
func (s *Interface) Mask() uint16 {
	if s.width == 8 {
		return 0xFF
	}

	return 0xFFFF
}

// Accepted reports whether a beat is transferred in the current cycle.
func (s *Interface) Accepted() bool {
	return s.Valid && s.Ready
}

// Beat returns the beat currently presented by the producer.
func (s *Interface) Beat() Beat {
	return Beat{Payload: s.Payload & s.Mask(), Last: s.Last}
}

// DriveBeat drives payload, valid and last from the producer side and reports
// whether any of them changed.
func (s *Interface) DriveBeat(valid bool, b Beat) bool {
	changed := false

	if s.Valid != valid {
		s.Valid = valid
		changed = true
	}

	payload := b.Payload & s.Mask()
	if s.Payload != payload {
		s.Payload = payload
		changed = true
	}

	if s.Last != b.Last {
		s.Last = b.Last
		changed = true
	}

	return changed
}

// DriveReady drives the consumer side and reports whether it changed.
func (s *Interface) DriveReady(ready bool) bool {
	if s.Ready == ready {
		return false
	}

	s.Ready = ready

	return true
}
