package dataset

import (
	"archive/zip"
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func workbookBytes(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadWorkbookCellTypes(t *testing.T) {
	b := workbookBytes(t, map[string]string{
		"xl/workbook.xml": `<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Notes" sheetId="1" r:id="rId1"/><sheet name="Data" sheetId="2" r:id="rId2"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Target="worksheets/sheet1.xml"/><Relationship Id="rId2" Target="worksheets/data.xml"/></Relationships>`,
		"xl/sharedStrings.xml": `<sst><si><t>Country</t></si><si><r><t>Burkina</t></r><r><t> Faso</t></r></si><si><t>Mali</t><rPh><t>ignored</t></rPh></si></sst>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData><row r="1"><c r="A1" t="inlineStr"><is><t>readme</t></is></c></row></sheetData></worksheet>`,
		"xl/worksheets/data.xml": `<worksheet><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="C1" t="inlineStr"><is><t>Flag</t></is></c></row>
<row r="2"><c r="A2" t="s"><v>1</v></c><c r="B2"><v>44927</v></c><c r="C2" t="b"><v>1</v></c></row>
<row r="3"><c r="A3" t="s"><v>2</v></c><c r="C3" t="e"><v>#N/A</v></c></row>
</sheetData></worksheet>`,
	})

	rows, err := readWorkbook(b, "book.xlsx", "data", 0)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"Country", "", "Flag"},
		{"Burkina Faso", "44927", "TRUE"},
		{"Mali", "", ""},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %q", rows)
	}

	rows, err = readWorkbook(b, "book.xlsx", "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0][0] != "readme" {
		t.Fatalf("first sheet rows = %q", rows)
	}

	_, err = readWorkbook(b, "book.xlsx", "Incidents", 0)
	if err == nil || !strings.Contains(err.Error(), "available sheets: Notes, Data") {
		t.Fatalf("err = %v", err)
	}
}

func TestColIndexFromRef(t *testing.T) {
	for ref, want := range map[string]int{"A1": 0, "c12": 2, "Z3": 25, "AA10": 26, "AB1": 27} {
		if got := colIndexFromRef(ref); got != want {
			t.Errorf("colIndexFromRef(%s) = %d, want %d", ref, got, want)
		}
	}
}

func TestReadWorkbookCellsWithoutColumnRef(t *testing.T) {
	b := workbookBytes(t, map[string]string{
		"xl/workbook.xml": `<workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Data" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships><Relationship Id="rId1" Target="worksheets/sheet1.xml"/></Relationships>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData>
<row r="12"><c r="A12" t="inlineStr"><is><t>a</t></is></c><c r="12"><v>7</v></c><c><v>8</v></c></row>
</sheetData></worksheet>`,
	})
	rows, err := readWorkbook(b, "book.xlsx", "", 1)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"a", "7", "8"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %q", rows)
	}
	if got := colIndexFromRef("12"); got != -1 {
		t.Errorf("colIndexFromRef(12) = %d, want -1", got)
	}
}
