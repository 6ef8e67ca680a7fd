package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/hyperfifo/capture"
	"github.com/sarchlab/hyperfifo/capture/store"
	"github.com/sarchlab/hyperfifo/config"
	"github.com/sarchlab/hyperfifo/gateware/analyzer"
	"github.com/sarchlab/hyperfifo/log"
	"github.com/sarchlab/hyperfifo/trace"
)

// ErrLossy is returned when the bytes delivered to the host differ from the
// captured ones.
var ErrLossy = errors.New("capture was not delivered intact")

// Report summarizes a capture run.
type Report struct {
	RunID         string
	Records       int
	Words         int
	Bytes         int
	SimulatedTime sim.VTimeInSec
	Stats         analyzer.Stats
}

// Throughput returns the delivered bytes per second of simulated time.
func (r Report) Throughput() float64 {
	if r.SimulatedTime == 0 {
		return 0
	}

	return float64(r.Bytes) / float64(r.SimulatedTime)
}

// Print writes the report in the form printed by the run command.
func (r Report) Print(w io.Writer) {
	s := r.Stats
	cycles := s.Cycles
	if cycles == 0 {
		cycles = 1
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Run: %s\n", r.RunID)
	fmt.Fprintf(w, "Records: %d (%d words, %d bytes)\n", r.Records, r.Words, r.Bytes)
	fmt.Fprintf(w, "Total Cycles: %d\n", s.Cycles)
	fmt.Fprintf(w, "Simulated Time: %.6f s\n", float64(r.SimulatedTime))
	fmt.Fprintf(w, "Throughput: %.2f MB/s\n", r.Throughput()/1e6)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Bursts:\n")
	fmt.Fprintf(w, "  Write:   %d\n", s.WriteBursts)
	fmt.Fprintf(w, "  Read:    %d\n", s.ReadBursts)
	fmt.Fprintf(w, "  Average: %.2f words\n", s.AverageBurstLength())
	fmt.Fprintf(w, "  Busy:    %4d cycles (%5.1f%%)\n",
		s.BusyCycles, 100.0*float64(s.BusyCycles)/float64(cycles))
	fmt.Fprintf(w, "  Read deferrals: %d\n", s.ReadDeferrals)
	fmt.Fprintf(w, "  Max occupancy:  %d words\n", s.MaxOccupancy)
}

// RunSession synthesizes traffic, pushes it through the capture buffer and
// checks that the host receives it unchanged. The decoded records are stored
// and exported as configured.
func RunSession(cfg *config.Config) (report *Report, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := xid.New().String()

	records := capture.Synthesize(cfg.Traffic.Seed, cfg.Traffic.Records,
		cfg.SynthOptions()...)

	beats, err := capture.Encode(records)
	if err != nil {
		return nil, err
	}

	expected, err := capture.Bytes(records)
	if err != nil {
		return nil, err
	}

	ram := cfg.HyperRAMBuilder().Build("RAM")
	buf := analyzer.NewBuffer("Buffer", ram, cfg.BufferOptions()...)
	valid, ready := cfg.Patterns()
	a := analyzer.NewAnalyzer(buf, valid, ready)

	buf.FIFO.AcceptHook(trace.LogTracer{})

	if cfg.Output.Trace != "" {
		w := trace.NewSQLiteWriter(cfg.Output.Trace)
		if err := w.Init(); err != nil {
			return nil, err
		}
		defer func() {
			if cerr := w.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close trace %s: %w", w.FileName(), cerr)
			}
		}()

		buf.FIFO.AcceptHook(trace.NewBurstTracer(w))
	}

	log.Info("Run %s: %d records, %d words", runID, len(records), len(beats))

	if err := a.Capture(beats...); err != nil {
		return nil, err
	}

	simTime, err := a.Simulate(cfg.Frequency(), cfg.Sim.MaxCycles)
	if err != nil {
		return nil, err
	}

	report = &Report{
		RunID:         runID,
		Records:       len(records),
		Words:         len(beats),
		Bytes:         len(expected),
		SimulatedTime: simTime,
		Stats:         a.Stats(),
	}

	if violations := a.Violations(); len(violations) > 0 {
		return report, fmt.Errorf("%w: %s", ErrLossy, violations[0])
	}

	if !bytes.Equal(a.Bytes(), expected) {
		return report, ErrLossy
	}

	decoded, err := capture.Decode(a.Bytes())
	if err != nil {
		return report, err
	}

	if cfg.Output.CaptureDB != "" {
		if err := saveCapture(cfg, report, decoded); err != nil {
			return report, err
		}
	}

	return report, nil
}

func saveCapture(cfg *config.Config, report *Report, records []capture.Record) error {
	s, err := store.Open(cfg.Output.CaptureDB)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.Put(records...); err != nil {
		return err
	}

	meta := map[string]string{
		"run_id":    report.RunID,
		"cycles":    strconv.FormatUint(report.Stats.Cycles, 10),
		"records":   strconv.Itoa(report.Records),
		"seed":      strconv.FormatInt(cfg.Traffic.Seed, 10),
		"frequency": strconv.FormatFloat(cfg.Sim.FrequencyMHz, 'f', -1, 64),
	}
	for k, v := range meta {
		if err := s.SetMeta(k, v); err != nil {
			return err
		}
	}

	log.Info("Stored %d records in %s", len(records), cfg.Output.CaptureDB)

	if cfg.Output.PCAP != "" {
		return exportPCAP(s, cfg.Output.PCAP, store.PCAPOptions{Start: time.Now()})
	}

	return nil
}

func exportPCAP(s *store.Store, path string, opts store.PCAPOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	n, err := s.ExportPCAP(f, opts)
	if err != nil {
		f.Close()
		return err
	}

	log.Info("Wrote %d frames to %s", n, path)

	return f.Close()
}
