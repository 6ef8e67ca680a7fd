// Package streamfifo presents a plain queue through the stream handshake.
package streamfifo

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/hyperfifo/rtl"
	"github.com/sarchlab/hyperfifo/stream"
)

// StreamFIFO accepts beats while the queue has room and offers the oldest
// queued beat on its output. Beats leave in the order they arrived.
type StreamFIFO struct {
	name  string
	queue sim.Buffer

	Input  *stream.Interface
	Output *stream.Interface
}

// New wraps queue, whose elements must be stream.Beat values. The queue is
// private to the adapter from this point on.
func New(name string, width int, queue sim.Buffer) *StreamFIFO {
	return &StreamFIFO{
		name:   name,
		queue:  queue,
		Input:  stream.NewInterface(width),
		Output: stream.NewInterface(width),
	}
}

// NewWithDepth creates an adapter around a new akita buffer holding depth
// beats. The buffer is named after the adapter.
func NewWithDepth(name string, width, depth int) *StreamFIFO {
	return New(name, width, sim.NewBuffer(name+".Queue", depth))
}

// Name returns the instance name.
func (f *StreamFIFO) Name() string {
	return f.name
}

// Level returns the number of queued beats.
func (f *StreamFIFO) Level() int {
	return f.queue.Size()
}

// Depth returns the queue capacity.
func (f *StreamFIFO) Depth() int {
	return f.queue.Capacity()
}

// AcceptHook attaches an akita hook to the underlying queue so that pushes
// and pops can be observed.
func (f *StreamFIFO) AcceptHook(hook sim.Hook) {
	f.queue.AcceptHook(hook)
}

// Eval implements rtl.Module.
func (f *StreamFIFO) Eval() bool {
	changed := f.Input.DriveReady(f.queue.CanPush())

	front, ok := f.front()
	if f.Output.DriveBeat(ok, front) {
		changed = true
	}

	return changed
}

func (f *StreamFIFO) front() (stream.Beat, bool) {
	e := f.queue.Peek()
	if e == nil {
		return stream.Beat{}, false
	}

	return e.(stream.Beat), true
}

// Commit implements rtl.Module.
func (f *StreamFIFO) Commit() {
	if f.Output.Accepted() {
		f.queue.Pop()
	}

	if f.Input.Accepted() {
		f.queue.Push(f.Input.Beat())
	}
}

// Reset empties the queue.
func (f *StreamFIFO) Reset() {
	f.queue.Clear()
}

var _ rtl.Module = (*StreamFIFO)(nil)
