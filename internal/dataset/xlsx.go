package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxReader) Read(p string, opt Options) ([][]string, error) {
	return ReadXLSX(p, opt.SheetName, opt.SheetIndex)
}

// ReadXLSX returns the rows of one worksheet, header first.
// If sheetName is empty and sheetIndex <= 0, it reads the first sheet.
// sheetIndex is 1-based (Sheet1 == 1).
func ReadXLSX(p string, sheetName string, sheetIndex int) ([][]string, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	return readWorkbook(b, filepath.Base(p), sheetName, sheetIndex)
}

func readWorkbook(b []byte, name, sheetName string, sheetIndex int) ([][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	sheets := parseWorkbook(readZipFile(zr, "xl/workbook.xml"))
	rels := parseRelationships(readZipFile(zr, "xl/_rels/workbook.xml.rels"))

	target := ""
	if sheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, sheetName) {
				if rel, ok := rels[s.RID]; ok {
					target = normalizeRelPath(rel)
				}
				break
			}
		}
		if target == "" {
			available := make([]string, len(sheets))
			for i, s := range sheets {
				available[i] = s.Name
			}
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'; available sheets: %s",
				sheetName, name, strings.Join(available, ", "))
		}
	}
	if target == "" {
		idx := sheetIndex
		if idx <= 0 {
			idx = 1
		}
		for _, s := range sheets {
			if s.SheetID == idx {
				if rel, ok := rels[s.RID]; ok {
					target = normalizeRelPath(rel)
				}
				break
			}
		}
		if target == "" {
			target = path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", idx))
		}
	}
	sheetXML := readZipFile(zr, target)
	if sheetXML == nil {
		return nil, fmt.Errorf("worksheet %s missing from workbook '%s'", target, name)
	}
	shared := parseSharedStrings(readZipFile(zr, "xl/sharedStrings.xml"))

	rr := newSheetRowReader(sheetXML, shared)
	var rows [][]string
	for {
		row, ok := rr.Next()
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	if err := rr.Err(); err != nil {
		return nil, fmt.Errorf("parse worksheet %s: %w", target, err)
	}
	return rows, nil
}

type xlsxWorkbook struct {
	Sheets []struct {
		Name    string `xml:"name,attr"`
		SheetID int    `xml:"sheetId,attr"`
		RID     string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

type xlsxRels struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// xlsxText is a plain or rich-text string; phonetic runs are not mapped.
type xlsxText struct {
	T    string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (x xlsxText) String() string {
	if len(x.Runs) == 0 {
		return x.T
	}
	var b strings.Builder
	b.WriteString(x.T)
	for _, r := range x.Runs {
		b.WriteString(r.T)
	}
	return b.String()
}

type xlsxCell struct {
	Ref    string   `xml:"r,attr"`
	Type   string   `xml:"t,attr"`
	Value  string   `xml:"v"`
	Inline xlsxText `xml:"is"`
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

// parseWorkbook lists the sheets declared in xl/workbook.xml.
func parseWorkbook(data []byte) []wbSheet {
	var wb xlsxWorkbook
	if len(data) == 0 || xml.Unmarshal(data, &wb) != nil {
		return nil
	}
	out := make([]wbSheet, len(wb.Sheets))
	for i, s := range wb.Sheets {
		out[i] = wbSheet{Name: s.Name, SheetID: s.SheetID, RID: s.RID}
	}
	return out
}

// parseRelationships maps relationship ids to their targets.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	var rels xlsxRels
	if len(data) == 0 || xml.Unmarshal(data, &rels) != nil {
		return out
	}
	for _, r := range rels.Rels {
		if r.ID != "" && r.Target != "" {
			out[r.ID] = r.Target
		}
	}
	return out
}

func readZipFile(zr *zip.Reader, name string) []byte {
	f, err := zr.Open(name)
	if err != nil {
		return nil
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil
	}
	return b
}

func parseSharedStrings(data []byte) []string {
	var sst struct {
		Items []xlsxText `xml:"si"`
	}
	if len(data) == 0 || xml.Unmarshal(data, &sst) != nil {
		return nil
	}
	out := make([]string, len(sst.Items))
	for i, it := range sst.Items {
		out[i] = it.String()
	}
	return out
}

// sheetRowReader streams rows out of a worksheet part, decoding one cell
// element at a time.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
	err    error
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// Err returns the first decoding error other than end of input.
func (r *sheetRowReader) Err() error { return r.err }

// Next returns the next row, with cells placed at their referenced column.
func (r *sheetRowReader) Next() ([]string, bool) {
	var row []string
	inRow, next := false, 0
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
			return nil, false
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "row" {
				row, inRow, next = nil, true, 0
				continue
			}
			if !inRow || el.Name.Local != "c" {
				continue
			}
			var c xlsxCell
			if err := r.dec.DecodeElement(&c, &el); err != nil {
				r.err = err
				return nil, false
			}
			col := next
			if i := colIndexFromRef(c.Ref); i >= 0 {
				col = i
			}
			next = col + 1
			for len(row) <= col {
				row = append(row, "")
			}
			row[col] = r.cellText(c)
		case xml.EndElement:
			if el.Name.Local == "row" {
				return row, true
			}
		}
	}
}

// cellText resolves shared strings, inline strings and booleans; error
// cells read as blank.
func (r *sheetRowReader) cellText(c xlsxCell) string {
	switch c.Type {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(c.Value))
		if err != nil || idx < 0 || idx >= len(r.shared) {
			return ""
		}
		return r.shared[idx]
	case "inlineStr":
		return c.Inline.String()
	case "b":
		if strings.TrimSpace(c.Value) == "1" {
			return "TRUE"
		}
		return "FALSE"
	case "e":
		return ""
	}
	return c.Value
}

// colIndexFromRef maps refs like "C12" to a 0-based column index; refs
// without column letters give -1.
func colIndexFromRef(ref string) int {
	idx := 0
	for _, ch := range strings.ToUpper(ref) {
		if ch < 'A' || ch > 'Z' {
			break
		}
		idx = idx*26 + int(ch-'A'+1)
	}
	return idx - 1
}

// normalizeRelPath converts relationship targets to ZIP entry names.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
