package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/hyperfifo/config"
	"github.com/sarchlab/hyperfifo/stream"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should describe the capture device by default", func() {
		c := config.DefaultConfig()

		Expect(c.Validate()).To(Succeed())
		Expect(c.HyperRAM.CapacityWords).To(Equal(uint32(1 << 22)))
		Expect(c.FIFO.OutputDepth).To(Equal(2))
		Expect(c.FIFO.MSBFirst).To(BeTrue())
		Expect(c.Frequency()).To(Equal(60 * sim.MHz))
	})

	It("should load partial YAML over the defaults", func() {
		path := filepath.Join(dir, "run.yaml")
		Expect(os.WriteFile(path, []byte(`
hyperram:
  capacity_words: 1024
  stall_probability: 0.25
traffic:
  records: 10
`), 0644)).To(Succeed())

		c, err := config.LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.HyperRAM.CapacityWords).To(Equal(uint32(1024)))
		Expect(c.HyperRAM.StallProbability).To(Equal(0.25))
		Expect(c.HyperRAM.InitialLatency).To(Equal(6))
		Expect(c.Traffic.Records).To(Equal(10))
		Expect(c.Output.CaptureDB).To(Equal("capture.db"))
	})

	It("should accept JSON", func() {
		path := filepath.Join(dir, "run.json")
		Expect(os.WriteFile(path,
			[]byte(`{"fifo": {"output_depth": 4}}`), 0644)).To(Succeed())

		c, err := config.LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.FIFO.OutputDepth).To(Equal(4))
	})

	It("should save and load the same configuration", func() {
		c := config.DefaultConfig()
		c.Traffic.Seed = 99
		c.Output.Trace = "trace"
		path := filepath.Join(dir, "saved.yaml")

		Expect(c.SaveConfig(path)).To(Succeed())
		loaded, err := config.LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(c))
	})

	It("should report unreadable files", func() {
		_, err := config.LoadConfig(filepath.Join(dir, "missing.yaml"))
		Expect(err).To(HaveOccurred())

		path := filepath.Join(dir, "bad.yaml")
		Expect(os.WriteFile(path, []byte("sim: [1, 2"), 0644)).To(Succeed())
		_, err = config.LoadConfig(path)
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("should reject invalid values",
		func(mutate func(c *config.Config), field string) {
			c := config.DefaultConfig()
			mutate(c)

			Expect(c.Validate()).To(MatchError(ContainSubstring(field)))
		},
		Entry("zero clock", func(c *config.Config) { c.Sim.FrequencyMHz = 0 }, "frequency_mhz"),
		Entry("empty memory", func(c *config.Config) { c.HyperRAM.CapacityWords = 0 }, "capacity_words"),
		Entry("zero latency", func(c *config.Config) { c.HyperRAM.InitialLatency = 0 }, "initial_latency"),
		Entry("always stalled", func(c *config.Config) { c.HyperRAM.StallProbability = 1 }, "stall_probability"),
		Entry("shallow output", func(c *config.Config) { c.FIFO.OutputDepth = 1 }, "output_depth"),
		Entry("huge packets", func(c *config.Config) { c.Traffic.MaxPacketLength = 0x10000 }, "max_packet_length"),
		Entry("silent host", func(c *config.Config) { c.Traffic.ReadyProbability = 0 }, "ready_probability"),
	)

	It("should clone without sharing", func() {
		c := config.DefaultConfig()
		clone := c.Clone()
		clone.HyperRAM.Seed = 42

		Expect(c.HyperRAM.Seed).To(Equal(int64(1)))
	})

	It("should build the memory it describes", func() {
		c := config.DefaultConfig()
		c.HyperRAM.CapacityWords = 256

		ram := c.HyperRAMBuilder().Build("RAM")

		Expect(ram.CapacityWords()).To(Equal(uint32(256)))
	})

	It("should only randomize handshakes below probability one", func() {
		active := func(p stream.Pattern) int {
			n := 0
			for cycle := uint64(0); cycle < 200; cycle++ {
				if p.Active(cycle) {
					n++
				}
			}
			return n
		}

		c := config.DefaultConfig()
		valid, ready := c.Patterns()
		Expect(active(valid)).To(Equal(200))
		Expect(active(ready)).To(Equal(200))

		c.Traffic.ReadyProbability = 0.5
		_, ready = c.Patterns()
		Expect(active(ready)).To(BeNumerically("<", 200))
	})
})
