package indicators

import (
	"errors"
	"math"
)

// ErrInvalidWindow is returned for non-positive windows and spans.
var ErrInvalidWindow = errors.New("window must be positive")

// IsMissing reports whether v is the missing-value marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// RollingMean returns the trailing mean over window values. A position is
// missing until the window is full, and whenever the window holds a missing value.
func RollingMean(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}

	out := make([]float64, len(values))
	for i := range values {
		out[i] = math.NaN()
		if i+1 < window {
			continue
		}

		sum := 0.0
		complete := true
		for _, v := range values[i+1-window : i+1] {
			if IsMissing(v) {
				complete = false
				break
			}
			sum += v
		}
		if complete {
			out[i] = sum / float64(window)
		}
	}
	return out, nil
}

// SMA is the simple moving average of values over window.
func SMA(values []float64, window int) ([]float64, error) {
	return RollingMean(values, window)
}

// EMA is the exponentially weighted moving average with α = 2/(span+1) in
// its recursive form: EMA[0] = x[0], EMA[t] = α·x[t] + (1-α)·EMA[t-1].
//
// Missing inputs carry the previous average forward, and the decay they
// represent is applied when the next value arrives, so a gap of k rows
// weights the previous average by (1-α)^(k+1) relative to α. Leading
// missing values stay missing until the first observation.
func EMA(values []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, ErrInvalidWindow
	}

	alpha := 2.0 / (float64(span) + 1.0)
	decay := 1.0 - alpha

	out := make([]float64, len(values))
	weighted := math.NaN()
	oldWeight := 1.0

	for i, cur := range values {
		switch {
		case IsMissing(weighted):
			weighted = cur
		default:
			oldWeight *= decay
			if !IsMissing(cur) {
				if weighted != cur {
					weighted = (oldWeight*weighted + alpha*cur) / (oldWeight + alpha)
				}
				oldWeight = 1.0
			}
		}
		out[i] = weighted
	}
	return out, nil
}
