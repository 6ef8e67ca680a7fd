// Package hyperram models the burst interface of the HyperRAM controller that
// backs the capture FIFO, and provides a behavioral model of the controller
// and memory device behind it.
package hyperram

import "github.com/sarchlab/hyperfifo/rtl"

// Bus is the signal bundle between a requester and the HyperRAM controller.
//
// A requester starts a burst by asserting StartTransfer with Address and
// PerformWrite while Idle is high. During the burst the controller pulses
// WriteReady or ReadReady once per word moved. The word moved in a cycle
// where FinalWord is high is the last one of the burst; the controller then
// returns to Idle.
type Bus struct {
	// Driven by the requester.
	Address       uint32
	PerformWrite  bool
	StartTransfer bool
	FinalWord     bool
	WriteData     uint16
	WriteValid    bool
	SinglePage    bool
	RegisterSpace bool

	// Driven by the controller.
	Idle       bool
	WriteReady bool
	ReadReady  bool
	ReadData   uint16
}

// WordWritten reports whether a write word moves in the current cycle.
func (b *Bus) WordWritten() bool {
	return b.WriteReady && b.WriteValid
}

// WordRead reports whether a read word moves in the current cycle.
func (b *Bus) WordRead() bool {
	return b.ReadReady
}

// Controller is the burst memory seen by a requester. Its Eval drives the
// controller side of the bus and its Commit samples the requester side.
type Controller interface {
	rtl.Module

	// Bus returns the signals shared with the requester.
	Bus() *Bus

	// CapacityWords returns the number of 16-bit words the memory holds.
	CapacityWords() uint32
}
