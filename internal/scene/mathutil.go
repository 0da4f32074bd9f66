package scene

// splitmix64 spreads a user seed so nearby seeds give unrelated streams.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func clampF32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Rand is a tiny deterministic RNG (xorshift64*).
type Rand struct {
	s uint64
}

func NewRand(seed uint64) *Rand {
	s := splitmix64(seed)
	if s == 0 {
		s = 1
	}
	return &Rand{s: s}
}

func (r *Rand) NextU64() uint64 {
	x := r.s
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.s = x
	return x * 2685821657736338717
}

// Float32 returns a value in [0,1).
func (r *Rand) Float32() float32 {
	return float32(r.NextU64()>>40) * (1.0 / (1 << 24))
}

func (r *Rand) RangeF(min, max float32) float32 {
	if max <= min {
		return min
	}
	return min + (max-min)*r.Float32()
}

// Centered returns a value in [-span/2, span/2).
func (r *Rand) Centered(span float32) float32 {
	return (r.Float32() - 0.5) * span
}
