package dataset

import "fmt"

// Filter is a conjunction of inclusion constraints. Empty Countries or
// Perpetrators mean no constraint on that dimension; the year range is
// always enforced and inclusive.
type Filter struct {
	Countries    []string
	Perpetrators []string
	YearMin      int
	YearMax      int
}

// FullRange returns the filter that admits every row of d.
func FullRange(d *Dataset) Filter {
	lo, hi, _ := d.YearRange()
	return Filter{YearMin: lo, YearMax: hi}
}

// Apply returns the rows of d matching every constraint. The column set is
// preserved and a zero-row result is valid.
func (f Filter) Apply(d *Dataset) (*Dataset, error) {
	if !d.HasColumn(ColYear) {
		return nil, fmt.Errorf("filter %s: column %q missing", d.Name(), ColYear)
	}
	countries := toSet(f.Countries)
	perps := toSet(f.Perpetrators)

	country := d.Strings(ColCountry)
	perp := d.Strings(ColPerpetrator)
	years := d.Ints(ColYear)

	keep := make([]bool, d.Len())
	for i := range keep {
		if countries != nil && !countries[country[i]] {
			continue
		}
		if perps != nil && !perps[perp[i]] {
			continue
		}
		keep[i] = years[i] >= f.YearMin && years[i] <= f.YearMax
	}
	return d.subset(keep)
}

func (f Filter) String() string {
	return fmt.Sprintf("countries=%v perpetrators=%v years=%d-%d", f.Countries, f.Perpetrators, f.YearMin, f.YearMax)
}

func toSet(vals []string) map[string]bool {
	if len(vals) == 0 {
		return nil
	}
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}
