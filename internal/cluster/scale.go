package cluster

import (
	"gonum.org/v1/gonum/stat"
)

// Scaler holds per-feature centring and scaling parameters.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// FitScaler computes population mean and standard deviation per column.
// A constant column keeps scale 1 so it is centred but not divided by zero.
func FitScaler(X [][]float64) Scaler {
	if len(X) == 0 {
		return Scaler{}
	}
	d := len(X[0])
	s := Scaler{Mean: make([]float64, d), Scale: make([]float64, d)}
	col := make([]float64, len(X))
	for j := 0; j < d; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		s.Mean[j] = mean
		if std == 0 {
			std = 1
		}
		s.Scale[j] = std
	}
	return s
}

// Transform returns a standardized copy of X.
func (s Scaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = r
	}
	return out
}

// Standardize rescales every column of X to zero mean and unit variance over
// the given rows.
func Standardize(X [][]float64) ([][]float64, Scaler) {
	s := FitScaler(X)
	return s.Transform(X), s
}
