package capture

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/hyperfifo/gateware/events"
)

type decodeState int

const (
	stateHeader decodeState = iota
	stateEventTimestamp
	statePacketTimestamp
	statePacketData
)

// Decoder reassembles records from the captured byte stream. Bytes can be fed
// in chunks of any size.
type Decoder struct {
	state   decodeState
	header  []byte
	record  Record
	length  int
	records []Record
}

// NewDecoder creates a decoder expecting the start of a record.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Write feeds bytes into the decoder. It stops at the first malformed record.
func (d *Decoder) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := d.feed(b); err != nil {
			return i, err
		}
	}

	return len(p), nil
}

func (d *Decoder) feed(b byte) error {
	d.header = append(d.header, b)
	if len(d.header) < 2 {
		return nil
	}

	word := binary.BigEndian.Uint16(d.header)

	switch d.state {
	case stateHeader:
		if d.header[0] == EventMarker {
			e := events.USBAnalyzerEvent(d.header[1])
			d.header = d.header[:0]

			if !e.Valid() {
				return fmt.Errorf("%w: %d", ErrUnknownEvent, uint8(e))
			}

			d.record = Record{Kind: KindEvent, Event: e}
			d.state = stateEventTimestamp
		} else {
			d.length = int(word)
			d.record = Record{Kind: KindPacket}
			d.state = statePacketTimestamp
		}
	case stateEventTimestamp:
		d.record.Timestamp = word
		d.emit()
	case statePacketTimestamp:
		d.record.Timestamp = word
		d.record.Data = make([]byte, 0, d.length)
		if d.length == 0 {
			d.emit()
		} else {
			d.state = statePacketData
		}
	case statePacketData:
		d.record.Data = append(d.record.Data, d.header[0])
		if len(d.record.Data) < d.length {
			d.record.Data = append(d.record.Data, d.header[1])
		}

		if len(d.record.Data) == d.length {
			d.emit()
		}
	}

	d.header = d.header[:0]

	return nil
}

func (d *Decoder) emit() {
	d.records = append(d.records, d.record)
	d.record = Record{}
	d.state = stateHeader
}

// Records removes and returns the records completed so far.
func (d *Decoder) Records() []Record {
	out := d.records
	d.records = nil

	return out
}

// InRecord reports whether the decoder is in the middle of a record.
func (d *Decoder) InRecord() bool {
	return d.state != stateHeader || len(d.header) > 0
}

// Decode parses a complete capture byte stream.
func Decode(data []byte) ([]Record, error) {
	d := NewDecoder()

	if _, err := d.Write(data); err != nil {
		return d.Records(), err
	}

	if d.InRecord() {
		return d.Records(), ErrTruncated
	}

	return d.Records(), nil
}
