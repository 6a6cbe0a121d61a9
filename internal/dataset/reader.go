package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Options controls how the raw table is read.
type Options struct {
	// SheetName selects an XLSX worksheet by name.
	SheetName string
	// SheetIndex is the 1-based XLSX sheet used when SheetName is empty.
	SheetIndex int
	// Delimiter for CSV. If 0, ',' (or '\t' for .tsv).
	Delimiter rune
}

// tableReader turns a source file into raw string records, header first.
type tableReader interface {
	CanRead(filename string) bool
	Read(path string, opt Options) ([][]string, error)
}

var readers []tableReader

func registerReader(r tableReader) {
	readers = append(readers, r)
}

func init() {
	registerReader(xlsxReader{})
	registerReader(csvReader{})
}

// ErrUnsupported indicates the source file format has no reader.
var ErrUnsupported = errors.New("unsupported table format")

// ReadRecords selects a reader by file extension and returns raw records.
func ReadRecords(path string, opt Options) ([][]string, error) {
	for _, r := range readers {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
}

type csvReader struct{}

func (csvReader) CanRead(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvReader) Read(path string, opt Options) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return readCSV(f, delim)
}

func readCSV(in io.Reader, delim rune) ([][]string, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim
	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
