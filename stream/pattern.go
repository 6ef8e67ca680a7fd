package stream

// Pattern decides, per cycle, whether a testbench endpoint asserts its side of
// the handshake. It must be a pure function of the cycle number so that
// settling the same cycle twice gives the same answer.
type Pattern interface {
	Active(cycle uint64) bool
}

// PatternFunc adapts a function to the Pattern interface.
type PatternFunc func(cycle uint64) bool

// Active calls f.
func (f PatternFunc) Active(cycle uint64) bool {
	return f(cycle)
}

// Always is active in every cycle.
var Always Pattern = PatternFunc(func(uint64) bool { return true })

// Never is never active.
var Never Pattern = PatternFunc(func(uint64) bool { return false })

// Every is active once every n cycles.
func Every(n uint64) Pattern {
	if n == 0 {
		return Never
	}

	return PatternFunc(func(cycle uint64) bool { return cycle%n == 0 })
}

// After is inactive for the first n cycles and active afterwards.
func After(n uint64) Pattern {
	return PatternFunc(func(cycle uint64) bool { return cycle >= n })
}

// Script replays a fixed list of decisions and stays at the final entry once
// the list runs out. An empty script is always active.
func Script(steps ...bool) Pattern {
	return PatternFunc(func(cycle uint64) bool {
		if len(steps) == 0 {
			return true
		}

		if cycle >= uint64(len(steps)) {
			return steps[len(steps)-1]
		}

		return steps[cycle]
	})
}

// Random is active with probability p in each cycle. The sequence is
// deterministic for a given seed and each cycle costs one hash.
func Random(seed int64, p float64) Pattern {
	key := splitmix64(uint64(seed))

	return PatternFunc(func(cycle uint64) bool {
		return unitFloat(splitmix64(key+cycle)) < p
	})
}

// splitmix64 scrambles x into a well distributed 64-bit value.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB

	return x ^ (x >> 31)
}

// unitFloat maps the top 53 bits of x to [0, 1).
func unitFloat(x uint64) float64 {
	return float64(x>>11) / (1 << 53)
}
