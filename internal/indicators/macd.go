package indicators

import "fmt"

// MACDResult holds the three MACD series
type MACDResult struct {
	MACD   []float64
	Signal []float64
	Hist   []float64
}

// MACD computes EMA(fast) - EMA(slow), its signal EMA and the histogram.
// fastEMA and slowEMA may be passed in when already computed; nil means
// compute them from closes.
func MACD(closes, fastEMA, slowEMA []float64, fast, slow, signal int) (*MACDResult, error) {
	var err error
	if fastEMA == nil {
		if fastEMA, err = EMA(closes, fast); err != nil {
			return nil, err
		}
	}
	if slowEMA == nil {
		if slowEMA, err = EMA(closes, slow); err != nil {
			return nil, err
		}
	}
	if len(fastEMA) != len(slowEMA) {
		return nil, fmt.Errorf("ema length mismatch: %d vs %d", len(fastEMA), len(slowEMA))
	}

	macd := make([]float64, len(fastEMA))
	for i := range macd {
		macd[i] = fastEMA[i] - slowEMA[i]
	}

	sig, err := EMA(macd, signal)
	if err != nil {
		return nil, err
	}

	hist := make([]float64, len(macd))
	for i := range hist {
		hist[i] = macd[i] - sig[i]
	}

	return &MACDResult{MACD: macd, Signal: sig, Hist: hist}, nil
}
