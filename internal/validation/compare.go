package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// Matching tolerances per data type.
const (
	amountTolerance   = 0.01
	percentTolerance  = 0.1
	dateTolerance     = 24 * time.Hour
	textSimilarityMin = 0.9
)

var currencyFormat = regexp.MustCompile(`^\d+(\.\d{2})?$`)

var amountMarkers = strings.NewReplacer("₹", "", "$", "", ",", "", " ", "")

// parseAmount parses a currency or number value, tolerating thousands
// separators and common currency markers.
func parseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "rs.")
	s = strings.TrimPrefix(s, "rs")
	s = strings.TrimPrefix(s, "inr")
	s = amountMarkers.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	return strconv.ParseFloat(s, 64)
}

// validCurrencyFormat reports whether a raw currency value matches
// ^\d+(\.\d{2})?$ after stripping commas.
func validCurrencyFormat(raw string) bool {
	return currencyFormat.MatchString(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
}

func parsePercent(raw string) (float64, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if s == "" {
		return 0, fmt.Errorf("empty percentage")
	}
	return strconv.ParseFloat(s, 64)
}

// Date layouts tried in order. Day-first forms come before ISO-style ones
// since scanned Indian documents use dd/mm/yyyy.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2/1/2006",
	"2-1-2006",
	"2/1/06",
	"2006/1/2",
	"2 Jan 2006",
	"Jan 2, 2006",
}

func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// amountsMatch reports equality within the given tolerance, exclusive at
// the boundary.
func amountsMatch(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

// datesMatch reports whether two dates fall within 24 hours of each other,
// inclusive at the boundary.
func datesMatch(a, b time.Time) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= dateTolerance
}

// similarity is normalized edit-distance similarity over trimmed,
// lower-cased inputs: 1 - distance/max(len). Lengths are in runes to match
// the distance, so multibyte scripts are not diluted. Two empty strings are
// identical.
func similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.Distance(a, b, nil)
	return 1 - float64(dist)/float64(maxLen)
}
