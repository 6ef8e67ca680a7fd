// Package capture defines the record format written into the capture stream
// and converts between records and the stream's words and bytes.
//
// Every record starts on a 16-bit word boundary and is sent big-endian.
//
//	packet: length(16) timestamp(16) data[length] pad-to-even
//	event:  0xFF code timestamp(16)
//
// A first byte of 0xFF therefore marks an event, which limits packets to
// MaxPacketLength bytes.
package capture

import (
	"errors"
	"fmt"

	"github.com/sarchlab/hyperfifo/gateware/events"
)

// MaxPacketLength is the longest packet a record can carry.
const MaxPacketLength = 0xFEFF

// EventMarker is the first byte of an event record.
const EventMarker = 0xFF

var (
	// ErrTruncated is returned when the data ends inside a record.
	ErrTruncated = errors.New("truncated capture record")

	// ErrUnknownEvent is returned for an event record with an unassigned
	// code.
	ErrUnknownEvent = errors.New("unknown event code")
)

// Kind tells packets and events apart.
type Kind uint8

// Record kinds.
const (
	KindPacket Kind = iota
	KindEvent
)

func (k Kind) String() string {
	if k == KindEvent {
		return "event"
	}

	return "packet"
}

// Record is one entry of the capture stream.
type Record struct {
	Kind      Kind
	Timestamp uint16

	// Data is the packet payload, PID included. Empty for events.
	Data []byte

	// Event is the event code. Only meaningful for events.
	Event events.USBAnalyzerEvent
}

// NewPacket creates a packet record.
func NewPacket(timestamp uint16, data []byte) Record {
	return Record{Kind: KindPacket, Timestamp: timestamp, Data: data}
}

// NewEvent creates an event record.
func NewEvent(timestamp uint16, e events.USBAnalyzerEvent) Record {
	return Record{Kind: KindEvent, Timestamp: timestamp, Event: e}
}

// Words returns the number of 16-bit words the record occupies.
func (r Record) Words() int {
	if r.Kind == KindEvent {
		return 2
	}

	return 2 + (len(r.Data)+1)/2
}

func (r Record) String() string {
	if r.Kind == KindEvent {
		return fmt.Sprintf("@%d %s", r.Timestamp, r.Event)
	}

	return fmt.Sprintf("@%d packet[%d] % X", r.Timestamp, len(r.Data), r.Data)
}
