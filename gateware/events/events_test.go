package events_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hyperfifo/gateware/events"
)

var _ = Describe("USBAnalyzerEvent", func() {
	DescribeTable("wire values",
		func(e events.USBAnalyzerEvent, code uint8, name string) {
			Expect(uint8(e)).To(Equal(code))
			Expect(e.String()).To(Equal(name))
			Expect(e.Valid()).To(BeTrue())
		},
		Entry("NONE", events.None, uint8(0), "NONE"),
		Entry("CAPTURE_STOP", events.CaptureStop, uint8(1), "CAPTURE_STOP"),
		Entry("CAPTURE_FULL", events.CaptureFull, uint8(2), "CAPTURE_FULL"),
		Entry("CAPTURE_RESUME", events.CaptureResume, uint8(3), "CAPTURE_RESUME"),
		Entry("CAPTURE_START_HIGH", events.CaptureStartHigh, uint8(4), "CAPTURE_START_HIGH"),
		Entry("CAPTURE_START_AUTO", events.CaptureStartAuto, uint8(7), "CAPTURE_START_AUTO"),
		Entry("SPEED_DETECT_HIGH", events.SpeedDetectHigh, uint8(8), "SPEED_DETECT_HIGH"),
		Entry("SPEED_DETECT_LOW", events.SpeedDetectLow, uint8(10), "SPEED_DETECT_LOW"),
		Entry("VBUS_CONNECTED", events.VBUSConnected, uint8(12), "VBUS_CONNECTED"),
		Entry("BUS_RESET", events.BusReset, uint8(14), "BUS_RESET"),
		Entry("HOST_CHIRP_SEEN", events.HostChirpSeen, uint8(18), "HOST_CHIRP_SEEN"),
	)

	It("should alias the base codes to the high speed members", func() {
		Expect(events.CaptureStartBase).To(Equal(events.CaptureStartHigh))
		Expect(events.SpeedDetectBase).To(Equal(events.SpeedDetectHigh))
	})

	It("should leave code 11 unassigned", func() {
		Expect(events.USBAnalyzerEvent(11).Valid()).To(BeFalse())
		Expect(events.USBAnalyzerEvent(19).Valid()).To(BeFalse())
		Expect(events.USBAnalyzerEvent(11).String()).
			To(Equal("USBAnalyzerEvent(11)"))
	})

	It("should list the eighteen assigned codes", func() {
		all := events.All()

		Expect(all).To(HaveLen(18))
		Expect(all[0]).To(Equal(events.None))
		Expect(all).NotTo(ContainElement(events.USBAnalyzerEvent(11)))
	})

	It("should parse names and aliases", func() {
		e, err := events.Parse("bus_reset")
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(Equal(events.BusReset))

		e, err = events.Parse("SPEED_DETECT_BASE")
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(Equal(events.SpeedDetectHigh))

		_, err = events.Parse("CAPTURE_EXPLODED")
		Expect(err).To(HaveOccurred())
	})

	It("should offset speed codes from their base", func() {
		e, err := events.CaptureStart(events.SpeedLow)
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(Equal(events.CaptureStartLow))

		e, err = events.SpeedDetect(events.SpeedFull)
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(Equal(events.SpeedDetectFull))

		_, err = events.SpeedDetect(events.SpeedAuto)
		Expect(err).To(HaveOccurred())

		s, ok := events.CaptureStartAuto.Speed()
		Expect(ok).To(BeTrue())
		Expect(s).To(Equal(events.SpeedAuto))

		_, ok = events.BusReset.Speed()
		Expect(ok).To(BeFalse())
	})
})
