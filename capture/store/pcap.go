package store

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/sarchlab/hyperfifo/capture"
)

// LinkTypeCapture is the pcap link type of exported files. gopacket's link
// types are 8 bits wide, so the USB 2.0 type 288 cannot be written and the
// first user-defined type is used instead.
const LinkTypeCapture = layers.LinkType(147)

// DefaultTick is the duration of one timestamp tick, one cycle of the 60 MHz
// capture clock.
const DefaultTick = time.Second / 60_000_000

const snapLen = 65536

// PCAPOptions controls the export.
type PCAPOptions struct {
	// Start is the wall clock time of the first record.
	Start time.Time

	// Tick is the duration of one timestamp tick. Zero means DefaultTick.
	Tick time.Duration

	// PacketsOnly leaves event records out.
	PacketsOnly bool
}

// ExportPCAP writes the stored records to w as a pcap file and returns the
// number of frames written. The 16-bit record timestamps are unwrapped into
// absolute times.
func (s *Store) ExportPCAP(w io.Writer, opts PCAPOptions) (int, error) {
	tick := opts.Tick
	if tick == 0 {
		tick = DefaultTick
	}

	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, LinkTypeCapture); err != nil {
		return 0, err
	}

	var (
		frames  int
		elapsed uint64
		last    uint16
		started bool
	)

	buf := gopacket.NewSerializeBuffer()

	err := s.ForEach(func(seq uint64, r capture.Record) error {
		if started {
			elapsed += uint64(r.Timestamp - last)
		}
		last, started = r.Timestamp, true

		if opts.PacketsOnly && r.Kind != capture.KindPacket {
			return nil
		}

		if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{},
			&RecordLayer{Record: r}); err != nil {
			return fmt.Errorf("record %d: %w", seq, err)
		}

		data := buf.Bytes()
		ci := gopacket.CaptureInfo{
			Timestamp:     opts.Start.Add(time.Duration(elapsed) * tick),
			CaptureLength: len(data),
			Length:        len(data),
		}

		if err := pw.WritePacket(ci, data); err != nil {
			return err
		}

		frames++

		return nil
	})

	return frames, err
}

// ReadPCAP reads the records of a file written by ExportPCAP.
func ReadPCAP(r io.Reader) ([]capture.Record, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, err
	}

	if pr.LinkType() != LinkTypeCapture {
		return nil, fmt.Errorf("unexpected link type %d", pr.LinkType())
	}

	var records []capture.Record

	for {
		data, _, err := pr.ReadPacketData()
		if errors.Is(err, io.EOF) {
			return records, nil
		}

		if err != nil {
			return records, err
		}

		packet := gopacket.NewPacket(data, RecordLayerType, gopacket.Default)
		if errLayer := packet.ErrorLayer(); errLayer != nil {
			return records, errLayer.Error()
		}

		l, ok := packet.Layer(RecordLayerType).(*RecordLayer)
		if !ok {
			return records, errors.New("frame without a capture record")
		}

		records = append(records, l.Record)
	}
}
