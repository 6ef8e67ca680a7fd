package store

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/sarchlab/hyperfifo/capture"
)

const (
	// RecordLayerNum identifies the layer
	RecordLayerNum = 2288
)

// RecordLayer carries one capture record, framed as in the capture stream.
type RecordLayer struct {
	layers.BaseLayer
	Record capture.Record
}

var RecordLayerType = gopacket.RegisterLayerType(RecordLayerNum,
	gopacket.LayerTypeMetadata{Name: "CaptureRecord", Decoder: gopacket.DecodeFunc(DecodeRecordLayer)})

// LayerType returns the type of the record layer in the layer catalog
func (l *RecordLayer) LayerType() gopacket.LayerType {
	return RecordLayerType
}

// CanDecode implements gopacket.DecodingLayer.
func (l *RecordLayer) CanDecode() gopacket.LayerClass {
	return RecordLayerType
}

// NextLayerType implements gopacket.DecodingLayer. Records are not nested.
func (l *RecordLayer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypeZero
}

// SerializeTo writes the framed record into the buffer.
func (l *RecordLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	data, err := capture.Bytes([]capture.Record{l.Record})
	if err != nil {
		return err
	}

	bytes, err := b.AppendBytes(len(data))
	if err != nil {
		return err
	}

	copy(bytes, data)

	return nil
}

func (l *RecordLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	records, err := capture.Decode(data)
	if err != nil {
		df.SetTruncated()
		return err
	}

	if len(records) != 1 {
		return fmt.Errorf("frame holds %d capture records", len(records))
	}

	l.BaseLayer = layers.BaseLayer{
		Contents: data[:],
		Payload:  []byte{},
	}
	l.Record = records[0]

	return nil
}

func DecodeRecordLayer(data []byte, p gopacket.PacketBuilder) error {
	l := &RecordLayer{}
	err := l.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(l)
	return nil
}
