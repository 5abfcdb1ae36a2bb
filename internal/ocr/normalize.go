package ocr

import (
	"regexp"
	"strings"
)

// DataType is the semantic type inferred for an extracted field value.
type DataType string

const (
	DataTypeText       DataType = "text"
	DataTypeNumber     DataType = "number"
	DataTypeDate       DataType = "date"
	DataTypeCurrency   DataType = "currency"
	DataTypePercentage DataType = "percentage"
)

var (
	nonAlnumRun    = regexp.MustCompile(`[^a-z0-9]+`)
	dateValueRegex = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	numberRegex    = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

var currencyMarkers = []string{"₹", "$", "rs.", "rs ", "inr"}

var currencyNames = []string{"amount", "salary", "pay", "total", "fee", "price"}
var percentNames = []string{"percent", "grade", "marks", "cgpa"}
var dateNames = []string{"date", "dob", "birth"}

// NormalizeFieldName lower-cases a raw key, collapses non-alphanumeric runs
// to a single underscore, and trims leading/trailing underscores.
func NormalizeFieldName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = nonAlnumRun.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// DetectDataType infers the semantic type of a generic key/value pair.
// Checks run in order: currency, percentage, date, number, then text.
func DetectDataType(fieldName, value string) DataType {
	lowerValue := strings.ToLower(value)
	if containsAny(lowerValue, currencyMarkers) || containsAny(fieldName, currencyNames) {
		return DataTypeCurrency
	}
	if strings.Contains(value, "%") || containsAny(fieldName, percentNames) {
		return DataTypePercentage
	}
	if dateValueRegex.MatchString(value) || containsAny(fieldName, dateNames) {
		return DataTypeDate
	}
	if numberRegex.MatchString(strings.ReplaceAll(strings.TrimSpace(value), ",", "")) {
		return DataTypeNumber
	}
	return DataTypeText
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
