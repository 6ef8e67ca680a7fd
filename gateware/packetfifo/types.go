package packetfifo

// State is the state of the burst controller.
type State int

const (
	// Idle means no burst is in flight and a new one may be issued.
	Idle State = iota
	// Busy means a burst is in flight. The controller waits for the memory
	// to report idle.
	Busy
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Busy:
		return "BUSY"
	default:
		return "UNKNOWN"
	}
}

// Direction is the direction of a burst.
type Direction int

// Burst directions.
const (
	Write Direction = iota
	Read
)

func (d Direction) String() string {
	if d == Write {
		return "write"
	}

	return "read"
}

// Burst describes one memory transaction.
type Burst struct {
	ID           string
	Direction    Direction
	StartAddress uint32
	StartCycle   uint64
	// EndCycle is only set once the memory reported the burst complete.
	EndCycle uint64
	Words    uint64
}

// Stats holds the FIFO's performance counters.
type Stats struct {
	WriteBursts uint64
	ReadBursts  uint64
	WordsIn     uint64
	WordsOut    uint64
	BusyCycles  uint64
	// ReadDeferrals counts idle cycles in which a read burst was eligible but
	// a write burst was issued instead.
	ReadDeferrals uint64
	MaxOccupancy  uint32
}

// AverageBurstLength returns the mean number of words per burst.
func (s Stats) AverageBurstLength() float64 {
	bursts := s.WriteBursts + s.ReadBursts
	if bursts == 0 {
		return 0
	}

	return float64(s.WordsIn+s.WordsOut) / float64(bursts)
}
