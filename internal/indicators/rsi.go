package indicators

import "math"

// Diff returns x[t] - x[t-1]. The first position, and any position where
// either operand is missing, is missing.
func Diff(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i] - values[i-1]
	}
	return out
}

// RSI computes the relative strength index with simple trailing means of
// gains and losses (not Wilder smoothing):
//
//	RS  = mean(gain, window) / mean(loss, window)
//	RSI = 100 - 100/(1+RS)
//
// A zero average loss yields 100. The first window positions are missing
// because the first difference is undefined.
func RSI(closes []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}

	delta := Diff(closes)
	gain := make([]float64, len(delta))
	loss := make([]float64, len(delta))
	for i, d := range delta {
		switch {
		case IsMissing(d):
			gain[i], loss[i] = math.NaN(), math.NaN()
		case d > 0:
			gain[i], loss[i] = d, 0
		default:
			gain[i], loss[i] = 0, -d
		}
	}

	avgGain, err := RollingMean(gain, window)
	if err != nil {
		return nil, err
	}
	avgLoss, err := RollingMean(loss, window)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(closes))
	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		switch {
		case IsMissing(g) || IsMissing(l):
			out[i] = math.NaN()
		case l == 0:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}
	return out, nil
}
