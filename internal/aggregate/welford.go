package aggregate

import (
	"math"

	"github.com/rewired-gh/cinestat/internal/models"
)

// Welford accumulates a running mean and variance in one pass.
type Welford struct {
	count int
	mean  float64
	m2    float64
}

// NewWelford returns an empty accumulator.
func NewWelford() *Welford {
	return &Welford{}
}

// Update adds one observation.
func (w *Welford) Update(value float64) {
	w.count++
	delta := value - w.mean
	w.mean += delta / float64(w.count)
	w.m2 += delta * (value - w.mean)
}

// Count returns the number of observations.
func (w *Welford) Count() int { return w.count }

// Mean is missing until at least one observation was added.
func (w *Welford) Mean() models.Number {
	if w.count == 0 {
		return models.Missing()
	}
	return models.Some(w.mean)
}

// Sum returns mean*count, or missing when empty.
func (w *Welford) Sum() models.Number {
	if w.count == 0 {
		return models.Missing()
	}
	return models.Some(w.mean * float64(w.count))
}

// StdDev is the sample standard deviation; missing below two observations.
func (w *Welford) StdDev() models.Number {
	if w.count < 2 {
		return models.Missing()
	}
	return models.Some(math.Sqrt(w.m2 / float64(w.count-1)))
}
