package commands_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hyperfifo/capture/store"
	"github.com/sarchlab/hyperfifo/cmd/hyperfifo/commands"
	"github.com/sarchlab/hyperfifo/config"
	"github.com/sarchlab/hyperfifo/log"
)

var _ = Describe("hyperfifo", func() {
	var (
		dir        string
		configPath string
		stdout     bytes.Buffer
		stderr     bytes.Buffer
	)

	execute := func(args ...string) error {
		root := commands.NewRootCommand(&stdout)
		root.SetErr(&stderr)
		root.SetArgs(args)

		return root.Execute()
	}

	BeforeEach(func() {
		stdout.Reset()
		stderr.Reset()
		dir = GinkgoT().TempDir()

		cfg := config.DefaultConfig()
		cfg.HyperRAM.CapacityWords = 4096
		cfg.Traffic.Records = 40
		cfg.Output.CaptureDB = filepath.Join(dir, "capture.db")
		configPath = filepath.Join(dir, "hyperfifo.yaml")
		Expect(cfg.SaveConfig(configPath)).To(Succeed())
	})

	AfterEach(func() {
		Expect(log.Init(os.Stderr, "info")).To(Succeed())
	})

	It("should run a lossless capture and store it", func() {
		err := execute("--config", configPath, "run",
			"--trace", filepath.Join(dir, "trace"),
			"--pcap", filepath.Join(dir, "capture.pcap"),
			"--stall", "0.1",
			"--ready", "0.5")

		Expect(err).NotTo(HaveOccurred())
		Expect(stdout.String()).To(ContainSubstring("Records: 40"))
		Expect(stdout.String()).To(ContainSubstring("Total Cycles:"))
		Expect(filepath.Join(dir, "trace.sqlite3")).To(BeAnExistingFile())
		Expect(filepath.Join(dir, "capture.pcap")).To(BeAnExistingFile())

		s, err := store.Open(filepath.Join(dir, "capture.db"))
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		n, err := s.Count()
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(40))

		seed, err := s.Meta("seed")
		Expect(err).NotTo(HaveOccurred())
		Expect(seed).To(Equal("1"))
	})

	It("should export a stored capture", func() {
		Expect(execute("--config", configPath, "run")).To(Succeed())

		out := filepath.Join(dir, "export.pcap")
		Expect(execute("--config", configPath, "export", "--out", out, "--packets-only")).
			To(Succeed())

		f, err := os.Open(out)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		records, err := store.ReadPCAP(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).NotTo(BeEmpty())
		for _, r := range records {
			Expect(r.Kind.String()).To(Equal("packet"))
		}
	})

	It("should take the config path from the environment", func() {
		GinkgoT().Setenv(commands.ConfigEnv, configPath)

		Expect(execute("config", "show")).To(Succeed())

		Expect(stdout.String()).To(ContainSubstring("capacity_words: 4096"))
	})

	It("should save the effective configuration", func() {
		path := filepath.Join(dir, "saved.yaml")

		Expect(execute("--config", configPath, "config", "save", path)).To(Succeed())

		cfg, err := config.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Traffic.Records).To(Equal(40))
	})

	It("should reject an unknown log level", func() {
		Expect(execute("--log-level", "shouty", "config", "show")).
			To(MatchError(log.ErrLevel))
	})

	It("should benchmark the scenarios as CSV", func() {
		Expect(execute("--config", configPath, "bench", "--csv", "--records", "20")).
			To(Succeed())

		Expect(stdout.String()).To(HavePrefix("name,cycles,words,bytes"))
		Expect(stdout.String()).To(ContainSubstring("\nline_rate,"))
		Expect(stdout.String()).To(ContainSubstring("\nhost_stall_heavy,"))
		Expect(stdout.String()).NotTo(ContainSubstring(",false\n"))
		Expect(filepath.Join(dir, "capture.db")).NotTo(BeAnExistingFile())
	})

	It("should refuse two output formats", func() {
		Expect(execute("bench", "--csv", "--json")).
			To(MatchError(ContainSubstring("exclusive")))
	})

	It("should reject an invalid configuration before simulating", func() {
		Expect(execute("--config", configPath, "run", "--ready", "0")).
			To(MatchError(ContainSubstring("ready_probability")))
	})
})

var _ = Describe("RunSession", func() {
	It("should report the run", func() {
		cfg := config.DefaultConfig()
		cfg.HyperRAM.CapacityWords = 1024
		cfg.Traffic.Records = 20
		cfg.Output.CaptureDB = ""

		report, err := commands.RunSession(cfg)

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Records).To(Equal(20))
		Expect(report.Bytes).To(Equal(2 * report.Words))
		Expect(report.Stats.BytesOut).To(Equal(uint64(report.Bytes)))
		Expect(report.Throughput()).To(BeNumerically(">", 0))
	})
})
