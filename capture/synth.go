package capture

import (
	"math/rand"

	"github.com/sarchlab/hyperfifo/gateware/events"
)

// Packet IDs used for synthesized packets.
var pids = []byte{
	0xE1, // OUT
	0x69, // IN
	0x2D, // SETUP
	0xC3, // DATA0
	0x4B, // DATA1
	0xD2, // ACK
	0x5A, // NAK
	0xA5, // SOF
}

var bursty = []events.USBAnalyzerEvent{
	events.BusReset,
	events.SuspendStarted,
	events.SuspendEnded,
	events.VBUSConnected,
	events.VBUSDisconnected,
	events.SpeedDetectHigh,
	events.DeviceChirpSeen,
	events.HostChirpSeen,
}

// SynthOption configures Synthesize.
type SynthOption func(*synthConfig)

type synthConfig struct {
	maxPacket   int
	eventChance float64
	maxGap      int
}

// WithMaxPacketLength limits the synthesized packet length, PID included.
func WithMaxPacketLength(n int) SynthOption {
	return func(c *synthConfig) {
		c.maxPacket = n
	}
}

// WithEventProbability sets the chance that a record is an event.
func WithEventProbability(p float64) SynthOption {
	return func(c *synthConfig) {
		c.eventChance = p
	}
}

// WithMaxGap sets the largest timestamp increment between records.
func WithMaxGap(ticks int) SynthOption {
	return func(c *synthConfig) {
		c.maxGap = ticks
	}
}

// Synthesize generates n records of plausible bus traffic. The result only
// depends on seed and the options. The first record is always a capture
// start event.
func Synthesize(seed int64, n int, opts ...SynthOption) []Record {
	cfg := synthConfig{maxPacket: 64, eventChance: 0.05, maxGap: 200}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.maxPacket < 1 {
		cfg.maxPacket = 1
	}

	if cfg.maxPacket > MaxPacketLength {
		cfg.maxPacket = MaxPacketLength
	}

	if cfg.maxGap < 1 {
		cfg.maxGap = 1
	}

	rng := rand.New(rand.NewSource(seed))
	records := make([]Record, 0, n)
	ts := uint16(0)

	for i := 0; i < n; i++ {
		if i == 0 {
			records = append(records, NewEvent(ts, events.CaptureStartHigh))
			continue
		}

		ts += uint16(1 + rng.Intn(cfg.maxGap))

		if rng.Float64() < cfg.eventChance {
			records = append(records, NewEvent(ts, bursty[rng.Intn(len(bursty))]))
			continue
		}

		data := make([]byte, 1+rng.Intn(cfg.maxPacket))
		data[0] = pids[rng.Intn(len(pids))]
		for j := 1; j < len(data); j++ {
			data[j] = byte(rng.Intn(256))
		}

		records = append(records, NewPacket(ts, data))
	}

	return records
}

// TotalWords returns the number of capture words the records occupy.
func TotalWords(records []Record) int {
	n := 0
	for _, r := range records {
		n += r.Words()
	}

	return n
}
