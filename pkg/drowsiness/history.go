package drowsiness

import "gonum.org/v1/gonum/stat"

// History is a fixed-capacity ring of float64 samples; the oldest sample is
// evicted first once full.
type History struct {
	buf   []float64
	start int
	n     int
}

// NewHistory creates a history holding at most capacity samples.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]float64, capacity)}
}

// Push appends v, evicting the oldest sample when full.
func (h *History) Push(v float64) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = v
		h.n++
		return
	}
	h.buf[h.start] = v
	h.start = (h.start + 1) % len(h.buf)
}

// Len returns the number of stored samples.
func (h *History) Len() int {
	return h.n
}

// Cap returns the maximum number of samples.
func (h *History) Cap() int {
	return len(h.buf)
}

// Values returns a copy of the samples, oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, h.n)
	for i := range out {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// Mean returns the arithmetic mean, or 0 when empty.
func (h *History) Mean() float64 {
	if h.n == 0 {
		return 0
	}
	return stat.Mean(h.Values(), nil)
}

// Reset drops all samples.
func (h *History) Reset() {
	h.start, h.n = 0, 0
}
