package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type fileLocator string

func (f fileLocator) String() string { return string(f) }

func (f fileLocator) Locate(context.Context) (string, error) {
	if _, err := os.Stat(string(f)); err != nil {
		return "", err
	}
	return string(f), nil
}

func TestCleanDropsRowsWithoutCoordinates(t *testing.T) {
	var rows []row
	for i := 0; i < 7; i++ {
		rows = append(rows, incident("2021-05-0"+strconv.Itoa(i+1), "Ukraine", "State Military", "48.5", "35.0"))
	}
	rows = append(rows,
		incident("2021-06-01", "Ukraine", "State Military", "", "35.0"),
		incident("2021-06-02", "Ukraine", "State Military", "48.5", ""),
		incident("2021-06-03", "Ukraine", "State Military", "", ""),
		incident("2021-06-04", "Ukraine", "State Military", "Inf", "35.0"),
		incident("2021-06-05", "Ukraine", "State Military", "48.5", "-Infinity"),
	)
	d := mustClean(t, rows...)
	if d.Len() != 7 {
		t.Fatalf("rows = %d, want 7", d.Len())
	}
	for i, v := range d.Floats(ColLatitude) {
		if v != 48.5 {
			t.Fatalf("row %d latitude = %v", i, v)
		}
	}
	if _, err := json.Marshal(d.Incidents()); err != nil {
		t.Fatalf("cleaned incidents do not encode: %v", err)
	}
}

func TestTotalVictimsIsSumOfRoleCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var rows []row
	for i := 0; i < 40; i++ {
		r := incident("2022-01-10", "Myanmar", "Unknown", "21.9", "95.9")
		for _, c := range VictimColumns {
			r[c] = strconv.Itoa(rng.Intn(20))
		}
		rows = append(rows, r)
	}
	d := mustClean(t, rows...)
	if d.Len() != len(rows) {
		t.Fatalf("rows = %d, want %d", d.Len(), len(rows))
	}
	total := d.Ints(ColTotalVictims)
	parts := map[string][]int{}
	for _, c := range VictimColumns {
		parts[c] = d.Ints(c)
	}
	for i := range total {
		sum := 0
		for _, c := range VictimColumns {
			sum += parts[c][i]
		}
		if total[i] != sum || total[i] < 0 {
			t.Fatalf("row %d: Total Victims = %d, want %d", i, total[i], sum)
		}
	}
	for _, o := range OutcomeTotals {
		got, edu, stu := d.Ints(o.Total), d.Ints(o.Educator), d.Ints(o.Student)
		for i := range got {
			if got[i] != edu[i]+stu[i] {
				t.Fatalf("%s row %d = %d, want %d", o.Total, i, got[i], edu[i]+stu[i])
			}
		}
	}
}

func TestCleanFillsUnknownAndDropsColumns(t *testing.T) {
	d := mustClean(t,
		incident("2020-02-01", "Nigeria", "Unknown", "9.1", "7.4").with(ColAdmin1, "", ColLocation, "  "),
		incident("2020-02-02", "Nigeria", "Unknown", "9.1", "7.4"),
	)
	if d.Len() != 2 {
		t.Fatalf("rows = %d, want 2", d.Len())
	}
	if got := d.Strings(ColAdmin1)[0]; got != UnknownSentinel {
		t.Errorf("Admin 1 = %q, want %q", got, UnknownSentinel)
	}
	if got := d.Strings(ColLocation)[0]; got != UnknownSentinel {
		t.Errorf("Location = %q, want %q", got, UnknownSentinel)
	}
	if got := d.Strings(ColAdmin1)[1]; got != "Region" {
		t.Errorf("Admin 1 = %q, want Region", got)
	}
	for _, c := range DroppedColumns {
		if d.HasColumn(c) {
			t.Errorf("column %q should be dropped", c)
		}
	}
	for _, c := range []string{ColYear, ColMonth, ColTotalVictims, ColTotalKilled} {
		if !d.HasColumn(c) {
			t.Errorf("derived column %q missing", c)
		}
	}
}

func TestCleanRequiresDateCountryFacility(t *testing.T) {
	d := mustClean(t,
		incident("2023-07-04", "Ukraine", "State Military", "50.4", "30.5"),
		incident("", "Ukraine", "State Military", "50.4", "30.5"),
		incident("not a date", "Ukraine", "State Military", "50.4", "30.5"),
		incident("2023-07-04", "Ukraine", "State Military", "50.4", "30.5").with(ColCountry, ""),
		incident("2023-07-04", "Ukraine", "State Military", "50.4", "30.5").with(ColFacility, ""),
	)
	if d.Len() != 1 {
		t.Fatalf("rows = %d, want 1", d.Len())
	}
	if got := d.Ints(ColYear)[0]; got != 2023 {
		t.Errorf("Year = %d, want 2023", got)
	}
	if got := d.Ints(ColMonth)[0]; got != 7 {
		t.Errorf("Month = %d, want 7", got)
	}
}

func TestCleanCoercesCounts(t *testing.T) {
	d := mustClean(t, incident("2024-01-01", "Ukraine", "x", "1", "1").with(
		ColEducatorsKilled, "2.0",
		ColStudentsKilled, "NaN",
		ColStudentsInjured, "-3",
		ColArson, "TRUE",
		ColDamage, "FALSE",
	))
	in := d.Incidents()[0]
	if in.Victims[ColEducatorsKilled] != 2 || in.Victims[ColStudentsKilled] != 0 || in.Victims[ColStudentsInjured] != 0 {
		t.Fatalf("victims = %v", in.Victims)
	}
	if in.Flags[ColArson] != 1 || in.Flags[ColDamage] != 0 || in.Flags[ColAttacksSchools] != 1 {
		t.Fatalf("flags = %v", in.Flags)
	}
	if in.TotalVictims != 2 || in.TotalKilled != 2 {
		t.Fatalf("totals = %d/%d", in.TotalVictims, in.TotalKilled)
	}
	if in.Cluster != nil || in.Ratios != nil {
		t.Fatalf("unexpected cluster/ratio fields on a cleaned row")
	}
}

func TestCleanSchemaError(t *testing.T) {
	recs := rawTable(incident("2024-01-01", "Ukraine", "x", "1", "1"))
	var keep []int
	for i, h := range recs[0] {
		if h != ColCountry && h != ColLatitude {
			keep = append(keep, i)
		}
	}
	for r := range recs {
		var out []string
		for _, i := range keep {
			out = append(out, recs[r][i])
		}
		recs[r] = out
	}
	_, err := FromRecords("drifted", recs)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("want SchemaError, got %v", err)
	}
	sort.Strings(se.Missing)
	if strings.Join(se.Missing, ",") != ColCountry+","+ColLatitude {
		t.Fatalf("missing = %v", se.Missing)
	}
	if !strings.Contains(err.Error(), ColLatitude) {
		t.Errorf("error text should name the missing column: %v", err)
	}
}

func TestLoaderSourceUnavailable(t *testing.T) {
	l := &Loader{Log: zerolog.Nop(), Source: fileLocator(filepath.Join(t.TempDir(), "missing.xlsx"))}
	_, err := l.Load(context.Background())
	var de *DataUnavailableError
	if !errors.As(err, &de) {
		t.Fatalf("want DataUnavailableError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("underlying cause should be preserved: %v", err)
	}
}

func TestLoaderUnreadableFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.xlsx")
	if err := os.WriteFile(p, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := &Loader{Log: zerolog.Nop(), Source: fileLocator(p)}
	_, err := l.Load(context.Background())
	var de *DataUnavailableError
	if !errors.As(err, &de) {
		t.Fatalf("want DataUnavailableError, got %v", err)
	}
}

func TestLoadXLSXWorkbook(t *testing.T) {
	recs := rawTable(
		// 44927 is 2023-01-01 as an Excel serial
		incident("44927", "Ukraine", "State Military", "50.45", "30.52").with(ColStudentsKilled, "3"),
		incident("2024-02-10", "Nigeria", "Non-State Armed Group", "9.06", "7.49").with(ColAdmin1, ""),
		incident("2024-02-11", "Nigeria", "Non-State Armed Group", "", "7.49"),
	)
	p := filepath.Join(t.TempDir(), "incidents.xlsx")
	writeXLSX(t, p, "Incidents", recs)

	l := &Loader{Log: zerolog.Nop(), Source: fileLocator(p), Options: Options{SheetName: "incidents"}}
	d, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Len() != 2 {
		t.Fatalf("rows = %d, want 2", d.Len())
	}
	if got := d.Strings(ColDate)[0]; got != "2023-01-01" {
		t.Errorf("date = %q, want 2023-01-01", got)
	}
	if got := d.Ints(ColTotalVictims)[0]; got != 3 {
		t.Errorf("Total Victims = %d, want 3", got)
	}
	if got := d.Strings(ColAdmin1)[1]; got != UnknownSentinel {
		t.Errorf("Admin 1 = %q, want Unknown", got)
	}

	_, err = (&Loader{Log: zerolog.Nop(), Source: fileLocator(p), Options: Options{SheetName: "Other"}}).Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "available sheets: Incidents") {
		t.Fatalf("want sheet-not-found error, got %v", err)
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	p := filepath.Join(t.TempDir(), "incidents.csv")
	var buf bytes.Buffer
	for _, rec := range rawTable(spanRows()...) {
		buf.WriteString(strings.Join(rec, ",") + "\n")
	}
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := LoadFile(p, Options{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := LoadFile(p, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := csvLines(t, a), csvLines(t, b); strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("loads differ:\n%v\n%v", got, want)
	}
	if a.Len() != 12 {
		t.Fatalf("rows = %d, want 12", a.Len())
	}
}

func TestReadRecordsUnsupported(t *testing.T) {
	_, err := ReadRecords("incidents.pdf", Options{})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("want ErrUnsupported, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	cases := map[string]string{
		"2021-03-04":           "2021-03-04",
		"2021-03-04 10:15:00":  "2021-03-04",
		"2021-03-04T10:15:00Z": "2021-03-04",
		"45292":                "2024-01-01",
		"45292.5":              "2024-01-01",
	}
	for in, want := range cases {
		got, ok := parseDate(in)
		if !ok || got.Format(DateLayout) != want {
			t.Errorf("parseDate(%q) = %v,%v want %s", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "soon", "-4"} {
		if _, ok := parseDate(in); ok {
			t.Errorf("parseDate(%q) should fail", in)
		}
	}
}

func TestParseFloatRejectsNonFinite(t *testing.T) {
	for _, in := range []string{"Inf", "+Inf", "-infinity", "NaN", "n/a", ""} {
		if v := parseFloat(in); !math.IsNaN(v) {
			t.Errorf("parseFloat(%q) = %v, want NaN", in, v)
		}
	}
	if v := parseFloat("4,5"); v != 4.5 {
		t.Errorf("parseFloat(decimal comma) = %v", v)
	}
	if n := parseCount("Inf"); n != 0 {
		t.Errorf("parseCount(Inf) = %d", n)
	}
}

// csvLines returns the data rows of d sorted, for order-independent compares.
func csvLines(t *testing.T, d *Dataset) []string {
	t.Helper()
	var buf bytes.Buffer
	if err := d.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	body := append([]string{}, lines[1:]...)
	sort.Strings(body)
	return append([]string{lines[0]}, body...)
}
