package hyperram

import (
	"github.com/sarchlab/akita/v4/mem/mem"
)

// DefaultCapacityWords is the size of the HyperRAM on the capture device,
// 8 MiB organized as 16-bit words.
const DefaultCapacityWords = 1 << 22

// Builder creates PSRAM models.
type Builder struct {
	capacityWords    uint32
	initialLatency   int
	recoveryCycles   int
	stallProbability float64
	seed             int64
	storage          *mem.Storage
}

// MakeBuilder returns a builder with the timing of the capture device's
// HyperRAM at 60 MHz.
func MakeBuilder() Builder {
	return Builder{
		capacityWords:  DefaultCapacityWords,
		initialLatency: 6,
		recoveryCycles: 2,
		seed:           1,
	}
}

// WithCapacityWords sets the number of words in the device.
func (b Builder) WithCapacityWords(n uint32) Builder {
	b.capacityWords = n
	return b
}

// WithInitialLatency sets the number of cycles between the start of a burst
// and the first word.
func (b Builder) WithInitialLatency(cycles int) Builder {
	b.initialLatency = cycles
	return b
}

// WithRecoveryCycles sets the number of cycles the device stays busy after
// the final word of a burst.
func (b Builder) WithRecoveryCycles(cycles int) Builder {
	b.recoveryCycles = cycles
	return b
}

// WithStallProbability makes the controller skip a word slot with
// probability p in each cycle of a burst.
func (b Builder) WithStallProbability(p float64) Builder {
	b.stallProbability = p
	return b
}

// WithSeed sets the seed of the stall generator.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithStorage sets the backing storage. The storage must hold at least two
// bytes per word.
func (b Builder) WithStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// Build creates the model.
func (b Builder) Build(name string) *PSRAM {
	if b.capacityWords == 0 {
		panic("hyperram: capacity must be > 0")
	}

	if b.initialLatency < 1 {
		panic("hyperram: initial latency must be >= 1")
	}

	p := &PSRAM{
		name:             name,
		bus:              &Bus{},
		capacityWords:    b.capacityWords,
		initialLatency:   b.initialLatency,
		recoveryCycles:   b.recoveryCycles,
		stallProbability: b.stallProbability,
		seed:             b.seed,
		storage:          b.storage,
	}

	if p.storage == nil {
		p.storage = mem.NewStorage(uint64(b.capacityWords) * 2)
	}

	p.Reset()

	return p
}
