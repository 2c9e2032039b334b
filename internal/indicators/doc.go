// Package indicators implements the technical indicators used by the feature
// pipeline over plain float64 series. math.NaN() marks a missing value both
// on input and on output; no function in this package returns an error for
// missing data.
package indicators
