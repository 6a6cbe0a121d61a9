package dataset

import (
	"fmt"
	"strings"
)

// DataUnavailableError indicates the source could not be fetched, opened or read.
type DataUnavailableError struct {
	Source string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("data unavailable (%s): %v", e.Source, e.Err)
	}
	return fmt.Sprintf("data unavailable: %v", e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// SchemaError indicates expected columns are absent, usually from source format drift.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("schema mismatch in %s: missing columns: %s", e.Source, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("schema mismatch: missing columns: %s", strings.Join(e.Missing, ", "))
}
