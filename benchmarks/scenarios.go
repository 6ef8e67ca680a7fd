package benchmarks

import (
	"github.com/sarchlab/hyperfifo/config"
)

// GetScenarios returns the standard capture scenarios.
func GetScenarios() []Benchmark {
	return []Benchmark{
		lineRate(),
		hostStall(0.5),
		hostStall(0.1),
		sparseCapture(),
		refreshStalls(),
		slowMemory(),
		largePackets(),
		registeredSkid(),
	}
}

// lineRate delivers traffic with neither side stalling.
func lineRate() Benchmark {
	return Benchmark{
		Name:        "line_rate",
		Description: "Capture and host at full rate - upper bound of the buffer",
	}
}

// hostStall has the host accept a byte with probability p per cycle. A slow
// host fills the ring and exercises the read yield.
func hostStall(p float64) Benchmark {
	names := map[float64]string{
		0.5: "host_stall_half",
		0.1: "host_stall_heavy",
	}

	name, ok := names[p]
	if !ok {
		name = "host_stall"
	}

	return Benchmark{
		Name:        name,
		Description: "Host accepts bytes at random - long write bursts, short reads",
		Configure: func(cfg *config.Config) {
			cfg.Traffic.ReadyProbability = p
		},
	}
}

// sparseCapture offers capture words at random, so write bursts are short
// and read bursts fill the gaps.
func sparseCapture() Benchmark {
	return Benchmark{
		Name:        "sparse_capture",
		Description: "Capture side offers a word every few cycles",
		Configure: func(cfg *config.Config) {
			cfg.Traffic.ValidProbability = 0.25
		},
	}
}

// refreshStalls makes the memory skip word slots.
func refreshStalls() Benchmark {
	return Benchmark{
		Name:        "refresh_stalls",
		Description: "Memory skips 20% of word slots during bursts",
		Configure: func(cfg *config.Config) {
			cfg.HyperRAM.StallProbability = 0.2
		},
	}
}

// slowMemory raises the per-burst overhead, penalizing short bursts.
func slowMemory() Benchmark {
	return Benchmark{
		Name:        "slow_memory",
		Description: "Doubled initial latency and recovery time",
		Configure: func(cfg *config.Config) {
			cfg.HyperRAM.InitialLatency *= 2
			cfg.HyperRAM.RecoveryCycles = cfg.HyperRAM.RecoveryCycles*2 + 1
		},
	}
}

// largePackets sends packets up to a full-speed bulk payload with few
// events.
func largePackets() Benchmark {
	return Benchmark{
		Name:        "large_packets",
		Description: "Packets up to 512 bytes - long write bursts",
		Configure: func(cfg *config.Config) {
			cfg.Traffic.Records = 100
			cfg.Traffic.MaxPacketLength = 512
			cfg.Traffic.EventProbability = 0.01
		},
	}
}

// registeredSkid inserts the registered skid buffer between the FIFO and the
// byte converter under a stalling host.
func registeredSkid() Benchmark {
	return Benchmark{
		Name:        "registered_skid",
		Description: "Registered skid buffer with a stalling host",
		Configure: func(cfg *config.Config) {
			cfg.FIFO.RegisteredSkid = true
			cfg.Traffic.ReadyProbability = 0.5
		},
	}
}
