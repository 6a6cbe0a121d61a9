package dataset

import "github.com/go-gota/gota/series"

// RatioSmoothing is added to Total Victims in every ratio denominator so
// zero-victim incidents yield 0 rather than dividing by zero.
const RatioSmoothing = 1

// DeriveRatios returns a copy of d with the five Pct_* impact ratios added.
// Values are not clamped.
func DeriveRatios(d *Dataset) (*Dataset, error) {
	total := d.Ints(ColTotalVictims)
	cols := make([]series.Series, 0, len(ratioSources))
	for _, rs := range ratioSources {
		counts := d.Ints(rs.count)
		vals := make([]float64, len(counts))
		for i, c := range counts {
			vals[i] = float64(c) / float64(total[i]+RatioSmoothing)
		}
		cols = append(cols, series.New(vals, series.Float, rs.ratio))
	}
	return d.WithColumns(cols...)
}
