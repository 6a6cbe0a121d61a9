package dataset

import (
	"archive/zip"
	"fmt"
	"html"
	"os"
	"strconv"
	"strings"
	"testing"
)

// row is one raw incident keyed by column name; unset columns are blank.
type row map[string]string

func fixtureHeader() []string {
	h := append([]string{}, RequiredColumns()...)
	h = append(h, ColGeoPrecision, ColStudentsAttacked)
	return append(h, DroppedColumns...)
}

func incident(date, country, perp string, lat, lon string) row {
	return row{
		ColDate:             date,
		ColCountry:          country,
		ColCountryISO:       strings.ToUpper(country[:3]),
		ColAdmin1:           "Region",
		ColLatitude:         lat,
		ColLongitude:        lon,
		ColLocation:         "School",
		ColPerpetrator:      perp,
		ColPerpetratorName:  "",
		ColWeapon:           "Explosive",
		ColFacility:         "School",
		ColAttacksSchools:   "1",
		ColEventDescription: "free text",
		ColEventID:          "SiND-1",
	}
}

func (r row) with(kv ...string) row {
	out := row{}
	for k, v := range r {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = kv[i+1]
	}
	return out
}

func rawTable(rows ...row) [][]string {
	h := fixtureHeader()
	out := [][]string{h}
	for _, r := range rows {
		rec := make([]string, len(h))
		for i, c := range h {
			rec[i] = r[c]
		}
		out = append(out, rec)
	}
	return out
}

func mustClean(t *testing.T, rows ...row) *Dataset {
	t.Helper()
	d, err := FromRecords("fixture", rawTable(rows...))
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	return d
}

// spanRows returns one incident per year 2020..2025 for two countries.
func spanRows() []row {
	var rows []row
	for y := 2020; y <= 2025; y++ {
		d := fmt.Sprintf("%d-03-15", y)
		rows = append(rows,
			incident(d, "Ukraine", "State Military", "49.1", "31.2").with(ColEducatorsKilled, "1", ColStudentsInjured, "2"),
			incident(d, "Nigeria", "Non-State Armed Group", "9.0", "8.6").with(ColStudentsKidnapped, "5"),
		)
	}
	return rows
}

func colRef(i int) string {
	s := ""
	for i++; i > 0; i = (i - 1) / 26 {
		s = string(rune('A'+(i-1)%26)) + s
	}
	return s
}

// writeXLSX writes a minimal one-sheet workbook. Numeric cells are stored as
// numbers, everything else as inline strings; blank cells are omitted.
func writeXLSX(t *testing.T, path, sheet string, records [][]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	put := func(name, body string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	put("xl/workbook.xml", `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="`+sheet+`" sheetId="1" r:id="rId1"/></sheets></workbook>`)
	put("xl/_rels/workbook.xml.rels", `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="/xl/worksheets/sheet1.xml"/>
</Relationships>`)

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>`)
	for r, rec := range records {
		fmt.Fprintf(&sb, `<row r="%d">`, r+1)
		for c, v := range rec {
			if v == "" {
				continue
			}
			ref := fmt.Sprintf("%s%d", colRef(c), r+1)
			if _, err := strconv.ParseFloat(v, 64); err == nil && r > 0 {
				fmt.Fprintf(&sb, `<c r="%s"><v>%s</v></c>`, ref, v)
				continue
			}
			fmt.Fprintf(&sb, `<c r="%s" t="inlineStr"><is><t>%s</t></is></c>`, ref, html.EscapeString(v))
		}
		sb.WriteString(`</row>`)
	}
	sb.WriteString(`</sheetData></worksheet>`)
	put("xl/worksheets/sheet1.xml", sb.String())
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}
