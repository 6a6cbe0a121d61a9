package dataset

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// DateLayout is the canonical textual form of the Date column after cleaning.
const DateLayout = "2006-01-02"

// Dataset is an immutable table of incidents. Every operation that adds
// columns or selects rows returns a new Dataset.
type Dataset struct {
	name string
	df   dataframe.DataFrame
}

func newDataset(name string, df dataframe.DataFrame) (*Dataset, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, df.Err)
	}
	return &Dataset{name: name, df: df}, nil
}

// Name identifies the source the dataset was loaded from.
func (d *Dataset) Name() string { return d.name }

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.df.Nrow() }

// Columns returns the column names in order.
func (d *Dataset) Columns() []string { return d.df.Names() }

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(col string) bool {
	for _, n := range d.df.Names() {
		if n == col {
			return true
		}
	}
	return false
}

// Frame returns a copy of the underlying data frame.
func (d *Dataset) Frame() dataframe.DataFrame { return d.df.Copy() }

// Strings returns a column as text; a missing column yields empty strings.
func (d *Dataset) Strings(col string) []string {
	if !d.HasColumn(col) {
		return make([]string, d.Len())
	}
	return d.df.Col(col).Records()
}

// Floats returns a column as float64; a missing column yields NaN.
func (d *Dataset) Floats(col string) []float64 {
	if !d.HasColumn(col) {
		out := make([]float64, d.Len())
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	return d.df.Col(col).Float()
}

// Ints returns a numeric column truncated to int; NaN and missing become 0.
func (d *Dataset) Ints(col string) []int {
	fs := d.Floats(col)
	out := make([]int, len(fs))
	for i, f := range fs {
		if !math.IsNaN(f) {
			out[i] = int(f)
		}
	}
	return out
}

// Matrix returns the named numeric columns as row-major feature vectors.
func (d *Dataset) Matrix(cols ...string) [][]float64 {
	n := d.Len()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, len(cols))
	}
	for j, c := range cols {
		for i, v := range d.Floats(c) {
			out[i][j] = v
		}
	}
	return out
}

// Unique returns the sorted distinct values of a text column.
func (d *Dataset) Unique(col string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range d.Strings(col) {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// YearRange returns the smallest and largest Year; ok is false for zero rows.
func (d *Dataset) YearRange() (lo, hi int, ok bool) {
	years := d.Ints(ColYear)
	if len(years) == 0 {
		return 0, 0, false
	}
	lo, hi = years[0], years[0]
	for _, y := range years[1:] {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	return lo, hi, true
}

// WithColumns returns a new Dataset with the given series added or replaced.
func (d *Dataset) WithColumns(cols ...series.Series) (*Dataset, error) {
	df := d.df
	for _, s := range cols {
		df = df.Mutate(s)
	}
	return newDataset(d.name, df)
}

func (d *Dataset) subset(keep []bool) (*Dataset, error) {
	return newDataset(d.name, d.df.Subset(keep))
}

// WriteCSV writes the dataset with a header row.
func (d *Dataset) WriteCSV(w io.Writer) error {
	return d.df.WriteCSV(w)
}

// Incident is a typed view of one dataset row.
type Incident struct {
	Date            string  `json:"date"`
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	Country         string  `json:"country"`
	CountryISO      string  `json:"country_iso"`
	Admin1          string  `json:"admin1"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Location        string  `json:"location"`
	Perpetrator     string  `json:"perpetrator"`
	PerpetratorName string  `json:"perpetrator_name"`
	Weapon          string  `json:"weapon"`
	Facility        string  `json:"facility"`

	Flags   map[string]int `json:"flags"`
	Victims map[string]int `json:"victims"`

	SexualViolence int `json:"sexual_violence"`
	TotalVictims   int `json:"total_victims"`
	TotalKilled    int `json:"total_killed"`
	TotalInjured   int `json:"total_injured"`
	TotalKidnapped int `json:"total_kidnapped"`
	TotalArrested  int `json:"total_arrested"`

	Ratios  map[string]float64 `json:"ratios,omitempty"`
	Cluster *int               `json:"cluster,omitempty"`
}

// Time parses the Date field.
func (in Incident) Time() time.Time {
	t, _ := time.Parse(DateLayout, in.Date)
	return t
}

// Incidents materializes every row as an Incident.
func (d *Dataset) Incidents() []Incident {
	n := d.Len()
	text := map[string][]string{}
	for _, c := range textColumns {
		text[c] = d.Strings(c)
	}
	ints := map[string][]int{}
	for _, c := range append(append(append([]string{ColYear, ColMonth, ColSexualViolence, ColTotalVictims}, VictimColumns...), FlagColumns...),
		ColTotalKilled, ColTotalInjured, ColTotalKidnapped, ColTotalArrested) {
		ints[c] = d.Ints(c)
	}
	lat, lon := d.Floats(ColLatitude), d.Floats(ColLongitude)
	hasRatios := d.HasColumn(ColPctKilled)
	ratios := map[string][]float64{}
	if hasRatios {
		for _, c := range RatioColumns {
			ratios[c] = d.Floats(c)
		}
	}
	var clusters []int
	if d.HasColumn(ColCluster) {
		clusters = d.Ints(ColCluster)
	}

	out := make([]Incident, n)
	for i := 0; i < n; i++ {
		in := Incident{
			Date:            text[ColDate][i],
			Year:            ints[ColYear][i],
			Month:           ints[ColMonth][i],
			Country:         text[ColCountry][i],
			CountryISO:      text[ColCountryISO][i],
			Admin1:          text[ColAdmin1][i],
			Latitude:        lat[i],
			Longitude:       lon[i],
			Location:        text[ColLocation][i],
			Perpetrator:     text[ColPerpetrator][i],
			PerpetratorName: text[ColPerpetratorName][i],
			Weapon:          text[ColWeapon][i],
			Facility:        text[ColFacility][i],
			Flags:           make(map[string]int, len(FlagColumns)),
			Victims:         make(map[string]int, len(VictimColumns)),
			SexualViolence:  ints[ColSexualViolence][i],
			TotalVictims:    ints[ColTotalVictims][i],
			TotalKilled:     ints[ColTotalKilled][i],
			TotalInjured:    ints[ColTotalInjured][i],
			TotalKidnapped:  ints[ColTotalKidnapped][i],
			TotalArrested:   ints[ColTotalArrested][i],
		}
		for _, c := range FlagColumns {
			in.Flags[c] = ints[c][i]
		}
		for _, c := range VictimColumns {
			in.Victims[c] = ints[c][i]
		}
		if hasRatios {
			in.Ratios = make(map[string]float64, len(RatioColumns))
			for _, c := range RatioColumns {
				in.Ratios[c] = ratios[c][i]
			}
		}
		if clusters != nil {
			label := clusters[i]
			in.Cluster = &label
		}
		out[i] = in
	}
	return out
}
