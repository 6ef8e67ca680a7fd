// Package benchmarks measures the throughput of the capture buffer under
// different traffic and memory conditions.
package benchmarks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/hyperfifo/capture"
	"github.com/sarchlab/hyperfifo/config"
	"github.com/sarchlab/hyperfifo/gateware/analyzer"
)

// BenchmarkResult holds the results of a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the number of clock cycles until the host received
	// the last byte
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// Words is the number of capture words pushed into the buffer
	Words int `json:"words"`

	// Bytes is the number of bytes delivered to the host
	Bytes int `json:"bytes"`

	// BytesPerCycle is the delivered bandwidth. The host side moves at most
	// one byte per cycle.
	BytesPerCycle float64 `json:"bytes_per_cycle"`

	// ThroughputMBps is the delivered bandwidth at the configured clock
	ThroughputMBps float64 `json:"throughput_mbps"`

	WriteBursts        uint64  `json:"write_bursts"`
	ReadBursts         uint64  `json:"read_bursts"`
	AverageBurstLength float64 `json:"average_burst_length"`

	// BusyCycles is the number of cycles the memory channel was occupied
	BusyCycles uint64 `json:"busy_cycles"`

	// ReadDeferrals counts cycles a read lost arbitration to a write
	ReadDeferrals uint64 `json:"read_deferrals"`

	// MaxOccupancy is the highest number of words held in memory
	MaxOccupancy uint32 `json:"max_occupancy"`

	// Intact reports whether the host received exactly the captured bytes
	Intact bool `json:"intact"`

	// Error is set when the run did not complete
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single capture scenario.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Configure adjusts a copy of the harness base configuration
	Configure func(cfg *config.Config)
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Base is the configuration every benchmark starts from
	Base *config.Config

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration. The memory is kept
// small so that the scenarios exercise the full ring.
func DefaultConfig() HarnessConfig {
	base := config.DefaultConfig()
	base.HyperRAM.CapacityWords = 4096
	base.Traffic.Records = 500
	base.Output = config.OutputConfig{}

	return HarnessConfig{
		Base:    base,
		Output:  os.Stdout,
		Verbose: false,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Base == nil {
		config.Base = DefaultConfig().Base
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "%s: %d cycles, %.3f bytes/cycle\n",
				result.Name, result.SimulatedCycles, result.BytesPerCycle)
		}
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	cfg := h.config.Base.Clone()
	if bench.Configure != nil {
		bench.Configure(cfg)
	}

	if err := cfg.Validate(); err != nil {
		result.Error = err.Error()
		return result
	}

	records := capture.Synthesize(cfg.Traffic.Seed, cfg.Traffic.Records,
		cfg.SynthOptions()...)

	beats, err := capture.Encode(records)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	expected, err := capture.Bytes(records)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	ram := cfg.HyperRAMBuilder().Build("RAM")
	buf := analyzer.NewBuffer("Buffer", ram, cfg.BufferOptions()...)
	valid, ready := cfg.Patterns()
	a := analyzer.NewAnalyzer(buf, valid, ready)
	if err := a.Capture(beats...); err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	runErr := a.RunUntilDrained(cfg.Sim.MaxCycles)
	result.WallTime = time.Since(start)

	stats := a.Stats()
	result.SimulatedCycles = stats.Cycles
	result.Words = len(beats)
	result.Bytes = int(stats.BytesOut)
	result.WriteBursts = stats.WriteBursts
	result.ReadBursts = stats.ReadBursts
	result.AverageBurstLength = stats.AverageBurstLength()
	result.BusyCycles = stats.BusyCycles
	result.ReadDeferrals = stats.ReadDeferrals
	result.MaxOccupancy = stats.MaxOccupancy

	if stats.Cycles > 0 {
		result.BytesPerCycle = float64(stats.BytesOut) / float64(stats.Cycles)
		result.ThroughputMBps = result.BytesPerCycle * cfg.Sim.FrequencyMHz
	}

	if runErr != nil {
		result.Error = runErr.Error()
		return result
	}

	result.Intact = len(a.Violations()) == 0 && bytes.Equal(a.Bytes(), expected)

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Capture Buffer Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Intact: %v\n", r.Intact)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Throughput ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles: %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Words In:         %d\n", r.Words)
		_, _ = fmt.Fprintf(h.config.Output, "  Bytes Out:        %d\n", r.Bytes)
		_, _ = fmt.Fprintf(h.config.Output, "  Bytes/Cycle:      %.3f\n", r.BytesPerCycle)
		_, _ = fmt.Fprintf(h.config.Output, "  Throughput:       %.2f MB/s\n", r.ThroughputMBps)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Memory ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Write Bursts:     %d\n", r.WriteBursts)
		_, _ = fmt.Fprintf(h.config.Output, "  Read Bursts:      %d\n", r.ReadBursts)
		_, _ = fmt.Fprintf(h.config.Output, "  Avg Burst:        %.2f words\n", r.AverageBurstLength)
		_, _ = fmt.Fprintf(h.config.Output, "  Busy Cycles:      %d\n", r.BusyCycles)
		if r.ReadDeferrals > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Read Deferrals:   %d\n", r.ReadDeferrals)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Max Occupancy:    %d words\n", r.MaxOccupancy)
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,words,bytes,bytes_per_cycle,throughput_mbps,write_bursts,read_bursts,avg_burst,busy_cycles,read_deferrals,max_occupancy,intact")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%.3f,%.2f,%d,%d,%.2f,%d,%d,%d,%v\n",
			r.Name,
			r.SimulatedCycles,
			r.Words,
			r.Bytes,
			r.BytesPerCycle,
			r.ThroughputMBps,
			r.WriteBursts,
			r.ReadBursts,
			r.AverageBurstLength,
			r.BusyCycles,
			r.ReadDeferrals,
			r.MaxOccupancy,
			r.Intact,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Config is the base configuration of the run
	Config *config.Config `json:"config"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Failed is the number of benchmarks that errored or lost data
	Failed int `json:"failed"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// AverageBytesPerCycle is the mean of the per-benchmark bandwidths
	AverageBytesPerCycle float64 `json:"average_bytes_per_cycle"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize computes the aggregate statistics of results.
func Summarize(results []BenchmarkResult) ReportSummary {
	summary := ReportSummary{TotalBenchmarks: len(results)}

	var bandwidth float64
	for _, r := range results {
		summary.TotalCycles += r.SimulatedCycles
		summary.TotalWallTime += r.WallTime
		bandwidth += r.BytesPerCycle

		if r.Error != "" || !r.Intact {
			summary.Failed++
		}
	}

	if len(results) > 0 {
		summary.AverageBytesPerCycle = bandwidth / float64(len(results))
	}

	return summary
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Config:    h.config.Base,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
