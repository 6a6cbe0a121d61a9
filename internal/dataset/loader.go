package dataset

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rs/zerolog"
)

// Locator resolves the configured source to a readable local file.
type Locator interface {
	fmt.Stringer
	Locate(ctx context.Context) (string, error)
}

// Loader produces the cleaned dataset from a source.
type Loader struct {
	Source  Locator
	Options Options
	Log     zerolog.Logger
}

// Load acquires the raw table and runs the cleaning pipeline.
// Acquisition and read failures are reported as *DataUnavailableError,
// missing columns as *SchemaError.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	if l.Source == nil {
		return nil, &DataUnavailableError{Err: fmt.Errorf("no source configured")}
	}
	p, err := l.Source.Locate(ctx)
	if err != nil {
		return nil, &DataUnavailableError{Source: l.Source.String(), Err: err}
	}
	return loadFile(p, l.Options, l.Log)
}

// LoadFile reads and cleans a local XLSX/CSV file.
func LoadFile(path string, opt Options) (*Dataset, error) {
	return loadFile(path, opt, zerolog.Nop())
}

func loadFile(path string, opt Options, log zerolog.Logger) (*Dataset, error) {
	records, err := ReadRecords(path, opt)
	if err != nil {
		return nil, &DataUnavailableError{Source: path, Err: err}
	}
	log.Debug().Str("source", path).Int("records", len(records)).Msg("raw table read")
	return clean(filepath.Base(path), records, log)
}

// FromRecords cleans an in-memory raw table (header first).
func FromRecords(name string, records [][]string) (*Dataset, error) {
	return clean(name, records, zerolog.Nop())
}

// clean runs the ordered pipeline: schema check, column drop, sentinel fill,
// coordinate drop, key validation, Year/Month derivation, victim totals.
func clean(name string, records [][]string, log zerolog.Logger) (*Dataset, error) {
	if len(records) == 0 {
		return nil, &SchemaError{Source: name, Missing: RequiredColumns()}
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, c := range RequiredColumns() {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Source: name, Missing: missing}
	}

	rows := make([][]string, 0, len(records))
	rows = append(rows, header)
	for _, rec := range records[1:] {
		if blankRecord(rec) {
			continue
		}
		row := make([]string, len(header))
		copy(row, rec)
		rows = append(rows, row)
	}
	var df dataframe.DataFrame
	if len(rows) == 1 {
		// LoadRecords rejects a header with no data rows
		cols := make([]series.Series, len(header))
		for i, h := range header {
			cols[i] = series.New([]string{}, series.String, h)
		}
		df = dataframe.New(cols...)
	} else {
		df = dataframe.LoadRecords(rows,
			dataframe.HasHeader(true),
			dataframe.DetectTypes(false),
			dataframe.DefaultType(series.String),
		)
	}
	if df.Err != nil {
		return nil, fmt.Errorf("load %s: %w", name, df.Err)
	}
	step := func(stage string, in int) {
		log.Debug().Str("dataset", name).Str("step", stage).Int("rows_in", in).Int("rows_out", df.Nrow()).Msg("cleaning step")
	}

	var drop []string
	for _, c := range DroppedColumns {
		if present[c] {
			drop = append(drop, c)
		}
	}
	if len(drop) > 0 {
		df = df.Drop(drop)
		if df.Err != nil {
			return nil, fmt.Errorf("drop columns: %w", df.Err)
		}
	}
	step("drop_columns", df.Nrow())

	for _, c := range textColumns {
		vals := df.Col(c).Records()
		for i, v := range vals {
			v = strings.TrimSpace(v)
			if isBlank(v) {
				v = ""
				if c == ColAdmin1 || c == ColLocation {
					v = UnknownSentinel
				}
			}
			vals[i] = v
		}
		df = df.Mutate(series.New(vals, series.String, c))
	}
	if df.Err != nil {
		return nil, fmt.Errorf("fill unknown: %w", df.Err)
	}
	step("fill_unknown", df.Nrow())

	in := df.Nrow()
	lat := parseFloats(df.Col(ColLatitude).Records())
	lon := parseFloats(df.Col(ColLongitude).Records())
	keep := make([]bool, in)
	for i := range keep {
		keep[i] = !math.IsNaN(lat[i]) && !math.IsNaN(lon[i])
	}
	df = df.Mutate(series.New(lat, series.Float, ColLatitude)).
		Mutate(series.New(lon, series.Float, ColLongitude)).
		Subset(keep)
	if df.Err != nil {
		return nil, fmt.Errorf("drop missing coordinates: %w", df.Err)
	}
	step("drop_missing_coordinates", in)

	in = df.Nrow()
	rawDates := df.Col(ColDate).Records()
	countries := df.Col(ColCountry).Records()
	facilities := df.Col(ColFacility).Records()
	dates := make([]string, 0, in)
	years := make([]int, 0, in)
	months := make([]int, 0, in)
	keep = make([]bool, in)
	for i := 0; i < in; i++ {
		t, ok := parseDate(rawDates[i])
		if !ok || countries[i] == "" || facilities[i] == "" {
			continue
		}
		keep[i] = true
		dates = append(dates, t.Format(DateLayout))
		years = append(years, t.Year())
		months = append(months, int(t.Month()))
	}
	df = df.Subset(keep)
	if df.Err != nil {
		return nil, fmt.Errorf("drop incomplete rows: %w", df.Err)
	}
	df = df.Mutate(series.New(dates, series.String, ColDate)).
		Mutate(series.New(years, series.Int, ColYear)).
		Mutate(series.New(months, series.Int, ColMonth))
	if df.Err != nil {
		return nil, fmt.Errorf("derive year: %w", df.Err)
	}
	step("derive_year", in)

	counts := map[string][]int{}
	countCols := append(append(append([]string{}, VictimColumns...), FlagColumns...), ColSexualViolence)
	for _, c := range optionalCountColumns {
		if present[c] {
			countCols = append(countCols, c)
		}
	}
	for _, c := range countCols {
		vals := df.Col(c).Records()
		ints := make([]int, len(vals))
		for i, v := range vals {
			ints[i] = parseCount(v)
		}
		counts[c] = ints
		df = df.Mutate(series.New(ints, series.Int, c))
	}
	n := df.Nrow()
	total := make([]int, n)
	for _, c := range VictimColumns {
		for i, v := range counts[c] {
			total[i] += v
		}
	}
	df = df.Mutate(series.New(total, series.Int, ColTotalVictims))
	for _, o := range OutcomeTotals {
		sum := make([]int, n)
		for i := range sum {
			sum[i] = counts[o.Educator][i] + counts[o.Student][i]
		}
		df = df.Mutate(series.New(sum, series.Int, o.Total))
	}
	if df.Err != nil {
		return nil, fmt.Errorf("derive totals: %w", df.Err)
	}
	step("derive_totals", n)

	log.Info().Str("dataset", name).Int("raw_rows", len(rows)-1).Int("rows", df.Nrow()).Msg("dataset cleaned")
	return newDataset(name, df)
}

func parseFloats(vals []string) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		if isBlank(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = parseFloat(v)
	}
	return out
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
