package validation

import (
	"fmt"
	"strings"

	"claimdocs-backend/internal/ocr"
)

const (
	nameSimilarityMin     = 0.8
	medicalDiscrepancyPct = 0.05
)

// BusinessValidator applies document-type-specific rules against the
// extracted fields and claim data.
type BusinessValidator interface {
	Validate(doc DocumentInput, claim *ClaimData, res *Results)
}

// BusinessRuleRegistry maps a document-type key to its validator. Lookup is
// case-insensitive and matches registered keys as substrings.
type BusinessRuleRegistry struct {
	keys       []string
	validators map[string]BusinessValidator
}

// NewBusinessRuleRegistry returns a registry pre-loaded with the income,
// medical, education, and bank validators.
func NewBusinessRuleRegistry() *BusinessRuleRegistry {
	r := &BusinessRuleRegistry{validators: make(map[string]BusinessValidator)}
	income := incomeValidator{}
	r.Register("income", income)
	r.Register("salary", income)
	r.Register("medical", medicalValidator{})
	r.Register("education", educationValidator{})
	r.Register("bank", bankValidator{})
	return r
}

// Register binds a document-type key to a validator.
func (r *BusinessRuleRegistry) Register(key string, v BusinessValidator) {
	key = strings.ToLower(strings.TrimSpace(key))
	if _, exists := r.validators[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.validators[key] = v
}

// Lookup resolves the validator for a document type, nil when none applies.
func (r *BusinessRuleRegistry) Lookup(documentType string) BusinessValidator {
	docType := strings.ToLower(strings.TrimSpace(documentType))
	if v, ok := r.validators[docType]; ok {
		return v
	}
	for _, key := range r.keys {
		if strings.Contains(docType, key) {
			return r.validators[key]
		}
	}
	return nil
}

type incomeValidator struct{}

func (incomeValidator) Validate(doc DocumentInput, claim *ClaimData, res *Results) {
	if claim == nil || doc.OCR == nil {
		return
	}

	if claim.ClaimAmount != nil {
		if f, ok := findField(doc.OCR.Fields, "salary", "amount"); ok {
			if salary, err := parseAmount(f.Value); err == nil && *claim.ClaimAmount > salary {
				res.addError(f.FieldName,
					fmt.Sprintf("claimed amount %.2f exceeds extracted salary %.2f", *claim.ClaimAmount, salary),
					CodeClaimExceedsSalary)
			}
		}
	}

	if claim.EmployeeID != "" {
		if f, ok := findField(doc.OCR.Fields, "employee_id"); ok && f.Value != claim.EmployeeID {
			res.addError(f.FieldName,
				fmt.Sprintf("extracted employee id %q does not match claimed %q", f.Value, claim.EmployeeID),
				CodeEmployeeIDMismatch)
		}
	}
}

type medicalValidator struct{}

func (medicalValidator) Validate(doc DocumentInput, claim *ClaimData, res *Results) {
	if claim == nil || doc.OCR == nil {
		return
	}

	if claim.ClaimAmount != nil {
		if f, ok := findField(doc.OCR.Fields, "bill_amount", "amount"); ok {
			if bill, err := parseAmount(f.Value); err == nil && bill > 0 {
				diff := *claim.ClaimAmount - bill
				if diff < 0 {
					diff = -diff
				}
				// Strictly greater: a discrepancy of exactly 5% passes.
				if diff > medicalDiscrepancyPct*bill {
					res.addWarning(f.FieldName,
						fmt.Sprintf("claimed amount %.2f differs from bill amount %.2f by more than 5%%", *claim.ClaimAmount, bill),
						CodeAmountDiscrepancy)
				}
			}
		}
	}

	checkNameSimilarity(doc.OCR.Fields, "patient_name", claim.PatientName, res)
}

type educationValidator struct{}

func (educationValidator) Validate(doc DocumentInput, claim *ClaimData, res *Results) {
	if claim == nil || doc.OCR == nil {
		return
	}

	if claim.MinimumGrade != nil {
		if f, ok := findField(doc.OCR.Fields, "grade", "percentage", "marks"); ok {
			if grade, err := parsePercent(f.Value); err == nil && grade < *claim.MinimumGrade {
				res.addError(f.FieldName,
					fmt.Sprintf("extracted grade %.2f is below claimed minimum %.2f", grade, *claim.MinimumGrade),
					CodeGradeBelowMinimum)
			}
		}
	}

	checkNameSimilarity(doc.OCR.Fields, "student_name", claim.StudentName, res)
}

type bankValidator struct{}

func (bankValidator) Validate(doc DocumentInput, claim *ClaimData, res *Results) {
	if claim == nil || doc.OCR == nil {
		return
	}

	if claim.BankAccount != "" {
		if f, ok := findField(doc.OCR.Fields, "account_number"); ok && f.Value != claim.BankAccount {
			res.addError(f.FieldName,
				fmt.Sprintf("extracted account number %q does not match claimed %q", f.Value, claim.BankAccount),
				CodeAccountNumberMismatch)
		}
	}

	if claim.IFSCCode != "" {
		if f, ok := findField(doc.OCR.Fields, "ifsc_code"); ok && f.Value != claim.IFSCCode {
			res.addError(f.FieldName,
				fmt.Sprintf("extracted IFSC code %q does not match claimed %q", f.Value, claim.IFSCCode),
				CodeIFSCCodeMismatch)
		}
	}
}

func checkNameSimilarity(fields []ocr.Field, fieldName, claimed string, res *Results) {
	if claimed == "" {
		return
	}
	f, ok := findField(fields, fieldName)
	if !ok {
		return
	}
	if sim := similarity(f.Value, claimed); sim < nameSimilarityMin {
		res.addWarning(f.FieldName,
			fmt.Sprintf("extracted name %q has low similarity (%.2f) to claimed %q", f.Value, sim, claimed),
			CodeNameSimilarityLow)
	}
}

// findField returns the first field whose name contains any of the given
// needles, tried in order.
func findField(fields []ocr.Field, needles ...string) (ocr.Field, bool) {
	for _, needle := range needles {
		for _, f := range fields {
			if strings.Contains(f.FieldName, needle) {
				return f, true
			}
		}
	}
	return ocr.Field{}, false
}
