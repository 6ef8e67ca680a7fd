// Package config holds the settings of a capture simulation run.
package config

import (
	"fmt"
	"os"

	"github.com/sarchlab/akita/v4/sim"
	"sigs.k8s.io/yaml"

	"github.com/sarchlab/hyperfifo/capture"
	"github.com/sarchlab/hyperfifo/gateware/analyzer"
	"github.com/sarchlab/hyperfifo/gateware/hyperram"
	"github.com/sarchlab/hyperfifo/gateware/packetfifo"
	"github.com/sarchlab/hyperfifo/stream"
)

// SimConfig controls the clock.
type SimConfig struct {
	// FrequencyMHz is the capture clock. Default: 60 MHz.
	FrequencyMHz float64 `json:"frequency_mhz"`

	// MaxCycles aborts a run that does not drain. Default: 50M cycles.
	MaxCycles uint64 `json:"max_cycles"`
}

// HyperRAMConfig describes the memory behind the FIFO.
type HyperRAMConfig struct {
	// CapacityWords is the size of the device in 16-bit words.
	// Default: 4M words (8 MiB).
	CapacityWords uint32 `json:"capacity_words"`

	// InitialLatency is the number of cycles from the start of a burst to
	// its first word. Default: 6 cycles.
	InitialLatency int `json:"initial_latency"`

	// RecoveryCycles is the busy time after a burst. Default: 2 cycles.
	RecoveryCycles int `json:"recovery_cycles"`

	// StallProbability is the chance a word slot is skipped. Default: 0.
	StallProbability float64 `json:"stall_probability"`

	Seed int64 `json:"seed"`
}

// FIFOConfig describes the data path around the memory.
type FIFOConfig struct {
	// OutputDepth is the depth of the queue behind the memory. Default: 2.
	OutputDepth int `json:"output_depth"`

	// MSBFirst sends the high byte of every word first. Default: true.
	MSBFirst bool `json:"msb_first"`

	RegisteredSkid bool `json:"registered_skid"`
}

// TrafficConfig shapes the synthesized capture traffic.
type TrafficConfig struct {
	Seed             int64   `json:"seed"`
	Records          int     `json:"records"`
	MaxPacketLength  int     `json:"max_packet_length"`
	EventProbability float64 `json:"event_probability"`
	MaxGap           int     `json:"max_gap"`

	// ValidProbability is the chance the capture side offers a word in a
	// cycle. Default: 1.
	ValidProbability float64 `json:"valid_probability"`

	// ReadyProbability is the chance the host accepts a byte in a cycle.
	// Default: 1.
	ReadyProbability float64 `json:"ready_probability"`
}

// OutputConfig names the files a run produces. Empty paths disable the
// output.
type OutputConfig struct {
	CaptureDB string `json:"capture_db"`
	Trace     string `json:"trace"`
	PCAP      string `json:"pcap"`
}

// MonitorConfig configures the status server.
type MonitorConfig struct {
	Address string `json:"address"`
}

// Config is the complete configuration of a run.
type Config struct {
	Sim      SimConfig      `json:"sim"`
	HyperRAM HyperRAMConfig `json:"hyperram"`
	FIFO     FIFOConfig     `json:"fifo"`
	Traffic  TrafficConfig  `json:"traffic"`
	Output   OutputConfig   `json:"output"`
	Monitor  MonitorConfig  `json:"monitor"`
}

// DefaultConfig returns the configuration of the capture device.
func DefaultConfig() *Config {
	return &Config{
		Sim: SimConfig{
			FrequencyMHz: 60,
			MaxCycles:    50_000_000,
		},
		HyperRAM: HyperRAMConfig{
			CapacityWords:  hyperram.DefaultCapacityWords,
			InitialLatency: 6,
			RecoveryCycles: 2,
			Seed:           1,
		},
		FIFO: FIFOConfig{
			OutputDepth: packetfifo.DefaultOutputDepth,
			MSBFirst:    true,
		},
		Traffic: TrafficConfig{
			Seed:             1,
			Records:          1000,
			MaxPacketLength:  64,
			EventProbability: 0.05,
			MaxGap:           200,
			ValidProbability: 1,
			ReadyProbability: 1,
		},
		Output: OutputConfig{
			CaptureDB: "capture.db",
		},
		Monitor: MonitorConfig{
			Address: "127.0.0.1:8080",
		},
	}
}

// LoadConfig loads a Config from a YAML or JSON file. Missing fields keep
// their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Marshal returns the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// SaveConfig writes the Config to a YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the values describe a buildable design.
func (c *Config) Validate() error {
	if c.Sim.FrequencyMHz <= 0 {
		return fmt.Errorf("sim.frequency_mhz must be > 0")
	}
	if c.HyperRAM.CapacityWords == 0 {
		return fmt.Errorf("hyperram.capacity_words must be > 0")
	}
	if c.HyperRAM.InitialLatency < 1 {
		return fmt.Errorf("hyperram.initial_latency must be >= 1")
	}
	if c.HyperRAM.RecoveryCycles < 0 {
		return fmt.Errorf("hyperram.recovery_cycles must be >= 0")
	}
	if c.HyperRAM.StallProbability < 0 || c.HyperRAM.StallProbability >= 1 {
		return fmt.Errorf("hyperram.stall_probability must be in [0, 1)")
	}
	if c.FIFO.OutputDepth < 2 {
		return fmt.Errorf("fifo.output_depth must be >= 2")
	}
	if c.Traffic.Records < 0 {
		return fmt.Errorf("traffic.records must be >= 0")
	}
	if c.Traffic.MaxPacketLength < 1 || c.Traffic.MaxPacketLength > capture.MaxPacketLength {
		return fmt.Errorf("traffic.max_packet_length must be in [1, %d]",
			capture.MaxPacketLength)
	}
	if c.Traffic.ValidProbability <= 0 || c.Traffic.ValidProbability > 1 {
		return fmt.Errorf("traffic.valid_probability must be in (0, 1]")
	}
	if c.Traffic.ReadyProbability <= 0 || c.Traffic.ReadyProbability > 1 {
		return fmt.Errorf("traffic.ready_probability must be in (0, 1]")
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Frequency returns the capture clock as an akita frequency.
func (c *Config) Frequency() sim.Freq {
	return sim.Freq(c.Sim.FrequencyMHz) * sim.MHz
}

// HyperRAMBuilder returns a builder for the configured memory.
func (c *Config) HyperRAMBuilder() hyperram.Builder {
	return hyperram.MakeBuilder().
		WithCapacityWords(c.HyperRAM.CapacityWords).
		WithInitialLatency(c.HyperRAM.InitialLatency).
		WithRecoveryCycles(c.HyperRAM.RecoveryCycles).
		WithStallProbability(c.HyperRAM.StallProbability).
		WithSeed(c.HyperRAM.Seed)
}

// BufferOptions returns the options of the capture buffer.
func (c *Config) BufferOptions() []analyzer.BufferOption {
	opts := []analyzer.BufferOption{
		analyzer.WithMSBFirst(c.FIFO.MSBFirst),
		analyzer.WithFIFOOptions(packetfifo.WithOutputDepth(c.FIFO.OutputDepth)),
	}

	if c.FIFO.RegisteredSkid {
		opts = append(opts, analyzer.WithRegisteredSkid())
	}

	return opts
}

// SynthOptions returns the options of the traffic generator.
func (c *Config) SynthOptions() []capture.SynthOption {
	return []capture.SynthOption{
		capture.WithMaxPacketLength(c.Traffic.MaxPacketLength),
		capture.WithEventProbability(c.Traffic.EventProbability),
		capture.WithMaxGap(c.Traffic.MaxGap),
	}
}

// Patterns returns the capture side valid and host side ready patterns.
func (c *Config) Patterns() (valid, ready stream.Pattern) {
	valid, ready = stream.Always, stream.Always

	if c.Traffic.ValidProbability < 1 {
		valid = stream.Random(c.Traffic.Seed+1, c.Traffic.ValidProbability)
	}

	if c.Traffic.ReadyProbability < 1 {
		ready = stream.Random(c.Traffic.Seed+2, c.Traffic.ReadyProbability)
	}

	return valid, ready
}
