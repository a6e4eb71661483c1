package exchange

import "math/rand"

// LatencyModel samples a simulated network/matching latency from
// N(mean_ms, std_ms), clamped to [min_ms, max_ms].
type LatencyModel struct {
	MeanMs float64
	StdMs  float64
	MinMs  float64
	MaxMs  float64

	rng *rand.Rand
}

// NewLatencyModel constructs a latency model. seed makes sampling
// reproducible across runs; pass 0 to source from global entropy.
func NewLatencyModel(meanMs, stdMs, minMs, maxMs float64, seed int64) *LatencyModel {
	src := rand.NewSource(seed)
	if seed == 0 {
		src = rand.NewSource(rand.Int63())
	}
	return &LatencyModel{
		MeanMs: meanMs,
		StdMs:  stdMs,
		MinMs:  minMs,
		MaxMs:  maxMs,
		rng:    rand.New(src),
	}
}

// Sample draws one latency value, clamped to [MinMs, MaxMs].
func (l *LatencyModel) Sample() float64 {
	v := l.MeanMs + l.rng.NormFloat64()*l.StdMs
	if v < l.MinMs {
		v = l.MinMs
	}
	if v > l.MaxMs {
		v = l.MaxMs
	}
	return v
}
