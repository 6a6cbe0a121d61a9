package cluster

import "fmt"

// InsufficientDataError indicates fewer rows than requested clusters.
type InsufficientDataError struct {
	Rows int
	K    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d rows for %d clusters", e.Rows, e.K)
}

// UndefinedScoreError indicates the silhouette coefficient is mathematically
// undefined for the given labels. Callers show "unavailable", never zero.
type UndefinedScoreError struct {
	Reason string
}

func (e *UndefinedScoreError) Error() string {
	return "silhouette score undefined: " + e.Reason
}

// FitError wraps a failure while fitting k-means, such as degenerate input.
type FitError struct {
	Err error
}

func (e *FitError) Error() string { return fmt.Sprintf("k-means fit failed: %v", e.Err) }

func (e *FitError) Unwrap() error { return e.Err }
