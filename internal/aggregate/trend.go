package aggregate

import (
	"math"

	"github.com/rewired-gh/cinestat/internal/models"
)

// Trend is an ordinary least squares fit y = Intercept + Slope*x.
type Trend struct {
	N         int           `json:"n"`
	Slope     models.Number `json:"slope"`
	Intercept models.Number `json:"intercept"`
	R2        models.Number `json:"r2"`
}

// At evaluates the fitted line at x; missing when the fit is.
func (t Trend) At(x float64) models.Number {
	if !t.Slope.Valid || !t.Intercept.Valid {
		return models.Missing()
	}
	return models.Some(t.Intercept.Value + t.Slope.Value*x)
}

// Direction is "increasing", "decreasing", "flat" or "insufficient data".
func (t Trend) Direction() string {
	switch {
	case !t.Slope.Valid:
		return "insufficient data"
	case t.Slope.Value > 0:
		return "increasing"
	case t.Slope.Value < 0:
		return "decreasing"
	default:
		return "flat"
	}
}

type moments struct {
	n             int
	meanX, meanY  float64
	sxx, syy, sxy float64
}

// pairMoments accumulates co-moments over index pairs where both sides are present.
func pairMoments(xs, ys []models.Number) moments {
	var m moments
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	for i := 0; i < n; i++ {
		if !xs[i].Valid || !ys[i].Valid {
			continue
		}
		x, y := xs[i].Value, ys[i].Value
		m.n++
		dx := x - m.meanX
		m.meanX += dx / float64(m.n)
		dy := y - m.meanY
		m.meanY += dy / float64(m.n)
		m.sxx += dx * (x - m.meanX)
		m.syy += dy * (y - m.meanY)
		m.sxy += dx * (y - m.meanY)
	}
	return m
}

// LinearTrend fits y on x over the pairs where both values are present.
// Fewer than two pairs or a constant x gives a missing slope.
func LinearTrend(xs, ys []models.Number) Trend {
	m := pairMoments(xs, ys)
	t := Trend{N: m.n}
	if m.n < 2 || m.sxx == 0 {
		return t
	}
	slope := m.sxy / m.sxx
	t.Slope = models.Some(slope)
	t.Intercept = models.Some(m.meanY - slope*m.meanX)
	if m.syy == 0 {
		t.R2 = models.Some(1)
	} else {
		t.R2 = models.Some((m.sxy * m.sxy) / (m.sxx * m.syy))
	}
	return t
}

// Correlation returns Pearson's r over the pairs where both values are
// present; missing with fewer than two pairs or zero variance on either side.
func Correlation(xs, ys []models.Number) models.Number {
	m := pairMoments(xs, ys)
	if m.n < 2 || m.sxx == 0 || m.syy == 0 {
		return models.Missing()
	}
	return models.Some(m.sxy / math.Sqrt(m.sxx*m.syy))
}
