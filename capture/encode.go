package capture

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/hyperfifo/stream"
)

// Encode converts records into capture words. The final word of every record
// is marked Last so that each record ends its write burst.
func Encode(records []Record) ([]stream.Beat, error) {
	total := 0
	for _, r := range records {
		total += r.Words()
	}

	beats := make([]stream.Beat, 0, total)

	for i, r := range records {
		words, err := encodeRecord(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		for j, w := range words {
			beats = append(beats, stream.Beat{
				Payload: w,
				Last:    j == len(words)-1,
			})
		}
	}

	return beats, nil
}

func encodeRecord(r Record) ([]uint16, error) {
	switch r.Kind {
	case KindEvent:
		if !r.Event.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownEvent, uint8(r.Event))
		}

		return []uint16{EventMarker<<8 | uint16(r.Event), r.Timestamp}, nil
	case KindPacket:
		if len(r.Data) > MaxPacketLength {
			return nil, fmt.Errorf("packet of %d bytes exceeds %d",
				len(r.Data), MaxPacketLength)
		}

		words := make([]uint16, 0, r.Words())
		words = append(words, uint16(len(r.Data)), r.Timestamp)

		pair := make([]byte, 2)
		for i := 0; i < len(r.Data); i += 2 {
			pair[1] = 0
			copy(pair, r.Data[i:])
			words = append(words, binary.BigEndian.Uint16(pair))
		}

		return words, nil
	default:
		return nil, fmt.Errorf("unknown record kind %d", r.Kind)
	}
}

// Bytes returns the big-endian byte stream of the records, as the capture
// buffer delivers it to the host.
func Bytes(records []Record) ([]byte, error) {
	beats, err := Encode(records)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, 2*len(beats))
	for _, b := range beats {
		data = binary.BigEndian.AppendUint16(data, b.Payload)
	}

	return data, nil
}
