package validation

import (
	"fmt"
	"regexp"
	"strings"

	"claimdocs-backend/internal/ocr"
)

// MaxFileSize is the largest accepted upload in bytes (5 MiB).
const MaxFileSize = 5242880

var allowedFileTypes = map[string]struct{}{
	"pdf":  {},
	"jpeg": {},
	"jpg":  {},
	"png":  {},
}

// claimAttribute maps a normalized extracted field name to the claim
// attribute it reconciles against.
var claimAttribute = map[string]func(*ClaimData) (string, bool){
	"employee_id":    func(c *ClaimData) (string, bool) { return c.EmployeeID, c.EmployeeID != "" },
	"employee_name":  func(c *ClaimData) (string, bool) { return c.EmployeeName, c.EmployeeName != "" },
	"bill_amount":    claimAmountValue,
	"claim_amount":   claimAmountValue,
	"account_number": func(c *ClaimData) (string, bool) { return c.BankAccount, c.BankAccount != "" },
	"ifsc_code":      func(c *ClaimData) (string, bool) { return c.IFSCCode, c.IFSCCode != "" },
	"patient_name":   func(c *ClaimData) (string, bool) { return c.PatientName, c.PatientName != "" },
	"student_name":   func(c *ClaimData) (string, bool) { return c.StudentName, c.StudentName != "" },
}

func claimAmountValue(c *ClaimData) (string, bool) {
	if c.ClaimAmount == nil {
		return "", false
	}
	return fmt.Sprintf("%.2f", *c.ClaimAmount), true
}

// Engine produces validation verdicts for documents. It never returns an
// error or panics outward: internal faults become a single VALIDATION_ERROR
// entry in the result.
type Engine struct {
	threshold float64
	business  *BusinessRuleRegistry
}

// NewEngine constructs a validation engine. A non-positive threshold falls
// back to the OCR default.
func NewEngine(threshold float64, business *BusinessRuleRegistry) *Engine {
	if threshold <= 0 {
		threshold = ocr.DefaultConfidenceThreshold
	}
	if business == nil {
		business = NewBusinessRuleRegistry()
	}
	return &Engine{threshold: threshold, business: business}
}

// Validate runs all stages against one shared accumulator and returns the
// verdict. claim and rules are optional.
func (e *Engine) Validate(doc DocumentInput, claim *ClaimData, rules []Rule) (res Results) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Results{
				IsValid: false,
				Errors: []Error{{
					Field:   "document",
					Message: fmt.Sprintf("validation fault: %v", rec),
					Code:    CodeValidationError,
				}},
			}
		}
	}()

	e.validateBasic(doc, &res)
	if doc.OCR != nil {
		e.reconcileFields(doc, claim, &res)
		e.applyRules(doc, rules, &res)
		if doc.OCR.Confidence < e.threshold {
			res.addWarning("document",
				fmt.Sprintf("overall OCR confidence %.0f%% is below threshold", doc.OCR.Confidence*100),
				CodeLowOCRConfidence)
		}
		if v := e.business.Lookup(doc.DocumentType); v != nil {
			v.Validate(doc, claim, &res)
		}
	}
	res.Metadata = buildMetadata(doc)

	res.IsValid = len(res.Errors) == 0
	return res
}

func (e *Engine) validateBasic(doc DocumentInput, res *Results) {
	if doc.FileSize > MaxFileSize {
		res.addError("fileSize",
			fmt.Sprintf("file size %d exceeds the %d byte limit", doc.FileSize, MaxFileSize),
			CodeFileSizeExceeded)
	}

	if _, ok := allowedFileTypes[normalizeFileType(doc.MimeType)]; !ok {
		res.addError("mimeType",
			fmt.Sprintf("unsupported file type %q", doc.MimeType),
			CodeInvalidFileType)
	}

	if doc.ConfidenceScore != nil && *doc.ConfidenceScore < e.threshold {
		res.addWarning("document",
			fmt.Sprintf("document confidence %.0f%% is below threshold", *doc.ConfidenceScore*100),
			CodeLowConfidence)
	}
}

func (e *Engine) reconcileFields(doc DocumentInput, claim *ClaimData, res *Results) {
	for _, f := range doc.OCR.Fields {
		if f.Confidence < e.threshold {
			res.addWarning(f.FieldName,
				fmt.Sprintf("field confidence %.0f%% is below threshold", f.Confidence*100),
				CodeLowFieldConfidence)
		}

		if claim != nil {
			if lookup, ok := claimAttribute[f.FieldName]; ok {
				if claimed, present := lookup(claim); present {
					compareClaim(f, claimed, res)
				}
			}
		}

		checkFormat(f, res)
	}
}

// compareClaim compares an extracted value against its claimed counterpart
// with type-aware tolerances.
func compareClaim(f ocr.Field, claimed string, res *Results) {
	mismatch := func() {
		res.addError(f.FieldName,
			fmt.Sprintf("extracted value %q does not match claimed value %q", f.Value, claimed),
			CodeDataMismatch)
	}

	switch f.DataType {
	case ocr.DataTypeCurrency, ocr.DataTypeNumber:
		a, errA := parseAmount(f.Value)
		b, errB := parseAmount(claimed)
		if errA != nil || errB != nil {
			// Unparseable values surface through the format checks.
			return
		}
		if !amountsMatch(a, b, amountTolerance) {
			mismatch()
		}
	case ocr.DataTypePercentage:
		a, errA := parsePercent(f.Value)
		b, errB := parsePercent(claimed)
		if errA != nil || errB != nil {
			return
		}
		if !amountsMatch(a, b, percentTolerance) {
			mismatch()
		}
	case ocr.DataTypeDate:
		a, errA := parseDate(f.Value)
		b, errB := parseDate(claimed)
		if errA != nil || errB != nil {
			return
		}
		if !datesMatch(a, b) {
			mismatch()
		}
	default:
		if similarity(f.Value, claimed) < textSimilarityMin {
			mismatch()
		}
	}
}

// checkFormat validates the raw value against its detected type,
// independent of any claim comparison.
func checkFormat(f ocr.Field, res *Results) {
	switch f.DataType {
	case ocr.DataTypeCurrency:
		if !validCurrencyFormat(f.Value) {
			res.addError(f.FieldName,
				fmt.Sprintf("value %q is not a valid currency amount", f.Value),
				CodeInvalidCurrencyFormat)
		}
	case ocr.DataTypePercentage:
		v, err := parsePercent(f.Value)
		if err != nil || v < 0 || v > 100 {
			res.addError(f.FieldName,
				fmt.Sprintf("value %q is not a valid percentage", f.Value),
				CodeInvalidPercentageFormat)
		}
	case ocr.DataTypeDate:
		if _, err := parseDate(f.Value); err != nil {
			res.addError(f.FieldName,
				fmt.Sprintf("value %q is not a recognized date", f.Value),
				CodeInvalidDateFormat)
		}
	case ocr.DataTypeNumber:
		if _, err := parseAmount(f.Value); err != nil {
			res.addError(f.FieldName,
				fmt.Sprintf("value %q is not a valid number", f.Value),
				CodeInvalidNumberFormat)
		}
	}
}

func (e *Engine) applyRules(doc DocumentInput, rules []Rule, res *Results) {
	for _, rule := range rules {
		f, found := fieldByName(doc.OCR.Fields, rule.FieldName)
		if !found {
			if rule.Required {
				res.addError(rule.FieldName, "required field is missing", CodeRequiredFieldMissing)
			}
			continue
		}

		if rule.ExpectedValue != "" && !expectedValueMatches(f, rule) {
			res.addError(rule.FieldName,
				fmt.Sprintf("value %q does not match expected %q", f.Value, rule.ExpectedValue),
				CodeExpectedValueMismatch)
		}

		if rule.ExpectedPattern != "" {
			re, err := regexp.Compile(rule.ExpectedPattern)
			if err != nil {
				res.addError(rule.FieldName,
					fmt.Sprintf("invalid expected pattern: %v", err),
					CodeValidationError)
			} else if !re.MatchString(f.Value) {
				res.addError(rule.FieldName,
					fmt.Sprintf("value %q does not match pattern %q", f.Value, rule.ExpectedPattern),
					CodePatternMismatch)
			}
		}

		// Type detection is heuristic, so a declared-type difference is
		// only a warning.
		if rule.DataType != "" && rule.DataType != f.DataType {
			res.addWarning(rule.FieldName,
				fmt.Sprintf("detected type %q differs from declared type %q", f.DataType, rule.DataType),
				CodeDataTypeMismatch)
		}
	}
}

func expectedValueMatches(f ocr.Field, rule Rule) bool {
	switch f.DataType {
	case ocr.DataTypeCurrency, ocr.DataTypeNumber, ocr.DataTypePercentage:
		a, errA := parseAmount(f.Value)
		b, errB := parseAmount(rule.ExpectedValue)
		if errA != nil || errB != nil {
			return f.Value == rule.ExpectedValue
		}
		tolerance := amountTolerance
		if f.DataType == ocr.DataTypePercentage {
			tolerance = percentTolerance
		}
		if rule.Tolerance != nil {
			tolerance = *rule.Tolerance
		}
		return amountsMatch(a, b, tolerance)
	default:
		return f.Value == rule.ExpectedValue
	}
}

func buildMetadata(doc DocumentInput) Metadata {
	meta := Metadata{
		PageCount:  doc.PageCount,
		Dimensions: doc.Dimensions,
	}
	if doc.OCR != nil {
		meta.IsReadable = doc.OCR.ExtractedText != ""
		meta.HasText = strings.TrimSpace(doc.OCR.ExtractedText) != ""
	}
	if doc.ConfidenceScore != nil {
		meta.Quality = qualityBucket(*doc.ConfidenceScore)
	}
	return meta
}

// qualityBucket buckets confidence with exclusive boundaries: 0.90 is
// medium, 0.70 is low.
func qualityBucket(confidence float64) string {
	switch {
	case confidence > 0.9:
		return QualityHigh
	case confidence > 0.7:
		return QualityMedium
	default:
		return QualityLow
	}
}

func normalizeFileType(mimeType string) string {
	s := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		s = s[idx+1:]
	}
	return s
}

func fieldByName(fields []ocr.Field, name string) (ocr.Field, bool) {
	for _, f := range fields {
		if f.FieldName == name {
			return f, true
		}
	}
	return ocr.Field{}, false
}
