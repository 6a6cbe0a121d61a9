package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006-01-02 15:04:05", "2006-01-02 15:04",
	"2006/01/02", "02/01/2006", "01/02/2006", "1/2/2006 15:04", "1/2/2006 15:04:05", "2-Jan-2006",
}

// excelEpoch is day zero of the 1900 date system, shifted for the
// phantom 1900-02-29 so serials after March 1900 land correctly.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// parseDate accepts textual dates and Excel serial day numbers.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 1 || f > 2958465 { // 9999-12-31
		return time.Time{}, false
	}
	days := math.Floor(f)
	secs := math.Round((f - days) * 86400)
	return excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second), true
}

// parseFloat returns NaN for blank, non-numeric and non-finite cells.
func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// locale decimal comma
		f, err = strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return math.NaN()
		}
	}
	if math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// parseCount reads a victim or flag count; blank, malformed and negative
// cells count as zero.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "na":
		return 0
	case "true", "yes":
		return 1
	case "false", "no":
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	f := parseFloat(s)
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return int(math.Round(f))
}

func isBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "na", "<nil>":
		return true
	}
	return false
}
