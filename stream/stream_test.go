package stream_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hyperfifo/rtl"
	"github.com/sarchlab/hyperfifo/stream"
)

// rogue is a producer that withdraws its beat after one cycle regardless of
// acceptance.
type rogue struct {
	out   *stream.Interface
	cycle uint64
}

func (r *rogue) Name() string { return "Rogue" }

func (r *rogue) Eval() bool {
	return r.out.DriveBeat(r.cycle == 0, stream.Beat{Payload: 0x1234})
}

func (r *rogue) Commit() { r.cycle++ }

func (r *rogue) Reset() { r.cycle = 0 }

var _ = Describe("Interface", func() {
	It("should mask 8-bit payloads", func() {
		s := stream.NewInterface(8)
		s.DriveBeat(true, stream.Beat{Payload: 0x1ff})

		Expect(s.Payload).To(Equal(uint16(0xff)))
		Expect(s.Mask()).To(Equal(uint16(0xff)))
	})

	It("should only accept when valid and ready are both high", func() {
		s := stream.NewInterface(16)
		s.Valid = true
		Expect(s.Accepted()).To(BeFalse())

		s.Ready = true
		Expect(s.Accepted()).To(BeTrue())
	})

	It("should reject unsupported widths", func() {
		Expect(func() { stream.NewInterface(12) }).To(Panic())
	})
})

var _ = Describe("Source and Sink", func() {
	var (
		src     *stream.Source
		sink    *stream.Sink
		checker *stream.Checker
		domain  *rtl.Domain
	)

	build := func(valid, ready stream.Pattern) {
		src = stream.NewSource("Src", 16, valid)
		sink = stream.NewSink("Sink", 16, ready)
		sink.Input = src.Output
		checker = stream.NewChecker("Link", src.Output)
		domain = rtl.NewDomain("Test", src, sink, checker)
	}

	It("should deliver one beat per cycle when both sides are always active", func() {
		build(stream.Always, stream.Always)
		src.PushWords(1, 2, 3, 4)

		domain.RunCycles(4)

		Expect(sink.Payloads()).To(Equal([]uint16{1, 2, 3, 4}))
		Expect(sink.Received()[3].Last).To(BeTrue())
		Expect(src.Done()).To(BeTrue())
	})

	It("should preserve order and hold beats under random backpressure", func() {
		build(stream.Random(1, 0.6), stream.Random(2, 0.3))
		words := make([]uint16, 200)
		for i := range words {
			words[i] = uint16(i * 7)
		}
		src.PushWords(words...)

		domain.RunCycles(5000)

		Expect(sink.Payloads()).To(Equal(words))
		Expect(checker.Violations()).To(BeEmpty())
		Expect(checker.Transfers()).To(Equal(uint64(200)))
	})

	It("should not deliver anything while the consumer is never ready", func() {
		build(stream.Always, stream.Never)
		src.PushWords(0xAAAA)

		domain.RunCycles(10)

		Expect(sink.Count()).To(Equal(0))
		Expect(src.Output.Valid).To(BeTrue())
		Expect(src.Output.Payload).To(Equal(uint16(0xAAAA)))
		Expect(checker.Violations()).To(BeEmpty())
	})

	It("should flag a producer that drops valid before acceptance", func() {
		s := stream.NewInterface(16)
		sink := stream.NewSink("Sink", 16, stream.Never)
		sink.Input = s
		checker := stream.NewChecker("Link", s)
		domain := rtl.NewDomain("Test", &rogue{out: s}, sink, checker)

		domain.RunCycles(3)

		Expect(checker.Violations()).To(HaveLen(1))
		Expect(checker.Violations()[0].Cycle).To(Equal(uint64(1)))
	})
})

var _ = Describe("Patterns", func() {
	It("should activate every n cycles", func() {
		p := stream.Every(3)

		Expect(p.Active(0)).To(BeTrue())
		Expect(p.Active(1)).To(BeFalse())
		Expect(p.Active(3)).To(BeTrue())
	})

	It("should hold the last scripted value", func() {
		p := stream.Script(false, true, false)

		Expect(p.Active(1)).To(BeTrue())
		Expect(p.Active(2)).To(BeFalse())
		Expect(p.Active(100)).To(BeFalse())
	})

	It("should be deterministic for a seed", func() {
		a := stream.Random(42, 0.5)
		b := stream.Random(42, 0.5)

		for c := uint64(0); c < 100; c++ {
			Expect(a.Active(c)).To(Equal(b.Active(c)))
		}
	})

	It("should be active at the requested rate and differ between seeds", func() {
		a := stream.Random(1, 0.3)
		b := stream.Random(2, 0.3)

		active, same := 0, 0
		for c := uint64(0); c < 10000; c++ {
			if a.Active(c) {
				active++
			}
			if a.Active(c) == b.Active(c) {
				same++
			}
		}

		Expect(active).To(BeNumerically("~", 3000, 300))
		Expect(same).To(BeNumerically("<", 9000))
		Expect(stream.Random(7, 0).Active(5)).To(BeFalse())
		Expect(stream.Random(7, 1).Active(5)).To(BeTrue())
	})

	It("should switch on after a delay", func() {
		p := stream.After(5)

		Expect(p.Active(4)).To(BeFalse())
		Expect(p.Active(5)).To(BeTrue())
	})
})
