package metrics

import (
	"math"
	"slices"
	"sort"
	"sync"
)

// Histogram tracks the distribution of values across fixed buckets.
// Thread-safe for concurrent use.
type Histogram struct {
	mu      sync.RWMutex
	buckets []float64 // upper bounds, inclusive
	counts  []uint64  // one per bucket plus overflow
	sum     float64
	count   uint64
	min     float64
	max     float64
}

// NewHistogram creates a histogram with the given bucket upper bounds.
// The bounds are copied and sorted.
func NewHistogram(buckets []float64) *Histogram {
	b := slices.Clone(buckets)
	slices.Sort(b)

	return &Histogram{
		buckets: b,
		counts:  make([]uint64, len(b)+1),
		min:     math.MaxFloat64,
		max:     -math.MaxFloat64,
	}
}

// LinearBuckets returns count bounds starting at start, width apart.
func LinearBuckets(start, width float64, count int) []float64 {
	out := make([]float64, count)
	for i := range out {
		out[i] = start + float64(i)*width
	}
	return out
}

// Observe records a value in the histogram.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.counts[sort.SearchFloat64s(h.buckets, v)]++
	h.sum += v
	h.count++
	h.min = math.Min(h.min, v)
	h.max = math.Max(h.max, v)
}

// HistogramSummary contains summarized histogram data.
type HistogramSummary struct {
	Count       uint64              `json:"count"`
	Sum         float64             `json:"sum"`
	Min         float64             `json:"min"`
	Max         float64             `json:"max"`
	Mean        float64             `json:"mean"`
	Buckets     []BucketCount       `json:"buckets"`
	Percentiles map[float64]float64 `json:"percentiles,omitempty"`
}

// BucketCount is a cumulative count up to and including UpperBound.
type BucketCount struct {
	UpperBound float64 `json:"le"`
	Count      uint64  `json:"count"`
}

// Summary returns a summary of the histogram.
func (h *Histogram) Summary() HistogramSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return HistogramSummary{
			Buckets:     []BucketCount{},
			Percentiles: map[float64]float64{},
		}
	}

	buckets := make([]BucketCount, len(h.buckets)+1)
	var cumulative uint64
	for i, c := range h.counts {
		cumulative += c
		bound := math.Inf(1)
		if i < len(h.buckets) {
			bound = h.buckets[i]
		}
		buckets[i] = BucketCount{UpperBound: bound, Count: cumulative}
	}

	percentiles := make(map[float64]float64, 4)
	for _, p := range []float64{0.5, 0.9, 0.95, 0.99} {
		percentiles[p] = h.percentileLocked(p)
	}

	return HistogramSummary{
		Count:       h.count,
		Sum:         h.sum,
		Min:         h.min,
		Max:         h.max,
		Mean:        h.sum / float64(h.count),
		Buckets:     buckets,
		Percentiles: percentiles,
	}
}

// Percentile estimates the p-th quantile (0 < p <= 1) by linear
// interpolation inside the bucket holding the rank. It returns 0 when the
// histogram is empty.
func (h *Histogram) Percentile(p float64) float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.count == 0 {
		return 0
	}
	return h.percentileLocked(p)
}

func (h *Histogram) percentileLocked(p float64) float64 {
	rank := p * float64(h.count)
	var cumulative uint64
	for i, c := range h.counts {
		prev := cumulative
		cumulative += c
		if float64(cumulative) < rank || c == 0 {
			continue
		}
		switch {
		case i >= len(h.buckets):
			return h.max
		case i == 0:
			return math.Max(h.min, math.Min(h.buckets[0], h.max))
		default:
			lower, upper := h.buckets[i-1], h.buckets[i]
			fraction := (rank - float64(prev)) / float64(c)
			return lower + fraction*(upper-lower)
		}
	}
	return h.max
}

// Reset clears all histogram data.
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clear(h.counts)
	h.sum = 0
	h.count = 0
	h.min = math.MaxFloat64
	h.max = -math.MaxFloat64
}

// Count returns the total number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Mean returns the mean of all observations.
func (h *Histogram) Mean() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.count == 0 {
		return 0
	}
	return h.sum / float64(h.count)
}
