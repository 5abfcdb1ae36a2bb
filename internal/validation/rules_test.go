package validation

import (
	"testing"

	"claimdocs-backend/internal/ocr"
)

func incomeDoc() DocumentInput {
	doc := pdfDoc(
		ocr.Field{FieldName: "salary_amount", Value: "45000", Confidence: 0.9, DataType: ocr.DataTypeCurrency},
		ocr.Field{FieldName: "employee_id", Value: "EMP123", Confidence: 0.9, DataType: ocr.DataTypeText},
	)
	doc.DocumentType = "income_certificate"
	return doc
}

func TestIncomeClaimExceedsSalary(t *testing.T) {
	engine := NewEngine(0.8, nil)

	res := engine.Validate(incomeDoc(), &ClaimData{ClaimAmount: floatPtr(50000)}, nil)
	if !hasError(res, CodeClaimExceedsSalary) {
		t.Error("claim 50000 against salary 45000 should fail with CLAIM_EXCEEDS_SALARY")
	}

	res = engine.Validate(incomeDoc(), &ClaimData{ClaimAmount: floatPtr(45000)}, nil)
	if hasError(res, CodeClaimExceedsSalary) {
		t.Error("claim equal to salary should pass")
	}
}

func TestIncomeEmployeeIDMismatch(t *testing.T) {
	engine := NewEngine(0.8, nil)

	res := engine.Validate(incomeDoc(), &ClaimData{EmployeeID: "EMP999"}, nil)
	if !hasError(res, CodeEmployeeIDMismatch) {
		t.Error("expected EMPLOYEE_ID_MISMATCH for EMP123 vs EMP999")
	}
	if res.IsValid {
		t.Error("mismatched employee id should fail validation")
	}

	res = engine.Validate(incomeDoc(), &ClaimData{EmployeeID: "EMP123"}, nil)
	if !res.IsValid {
		t.Errorf("matching employee id should validate, got %+v", res.Errors)
	}
}

func medicalDoc(billAmount string) DocumentInput {
	doc := pdfDoc(
		ocr.Field{FieldName: "bill_amount", Value: billAmount, Confidence: 0.9, DataType: ocr.DataTypeCurrency},
		ocr.Field{FieldName: "patient_name", Value: "Ravi Kumar", Confidence: 0.9, DataType: ocr.DataTypeText},
	)
	doc.DocumentType = "medical_bill"
	return doc
}

func TestMedicalAmountDiscrepancyBoundary(t *testing.T) {
	engine := NewEngine(0.8, nil)

	// Exactly 5% over the extracted amount passes silently.
	res := engine.Validate(medicalDoc("1000"), &ClaimData{ClaimAmount: floatPtr(1050)}, nil)
	if hasWarning(res, CodeAmountDiscrepancy) {
		t.Error("a discrepancy of exactly 5% should not warn")
	}

	res = engine.Validate(medicalDoc("1000"), &ClaimData{ClaimAmount: floatPtr(1051)}, nil)
	if !hasWarning(res, CodeAmountDiscrepancy) {
		t.Error("a discrepancy above 5% should warn AMOUNT_DISCREPANCY")
	}
	if hasError(res, CodeAmountDiscrepancy) {
		t.Error("amount discrepancy is a warning, never an error")
	}
}

func TestMedicalPatientNameSimilarity(t *testing.T) {
	engine := NewEngine(0.8, nil)

	res := engine.Validate(medicalDoc("1000"), &ClaimData{PatientName: "R. Sharma"}, nil)
	if !hasWarning(res, CodeNameSimilarityLow) {
		t.Error("dissimilar patient name should warn NAME_SIMILARITY_LOW")
	}

	res = engine.Validate(medicalDoc("1000"), &ClaimData{PatientName: "ravi kumar"}, nil)
	if hasWarning(res, CodeNameSimilarityLow) {
		t.Error("case-insensitive identical name should not warn")
	}
}

func TestEducationGradeBelowMinimum(t *testing.T) {
	engine := NewEngine(0.8, nil)

	doc := pdfDoc(
		ocr.Field{FieldName: "grade", Value: "72.5", Confidence: 0.9, DataType: ocr.DataTypePercentage},
		ocr.Field{FieldName: "student_name", Value: "Anita Shah", Confidence: 0.9, DataType: ocr.DataTypeText},
	)
	doc.DocumentType = "education"

	res := engine.Validate(doc, &ClaimData{MinimumGrade: floatPtr(75)}, nil)
	if !hasError(res, CodeGradeBelowMinimum) {
		t.Error("grade 72.5 below minimum 75 should fail with GRADE_BELOW_MINIMUM")
	}

	res = engine.Validate(doc, &ClaimData{MinimumGrade: floatPtr(72.5)}, nil)
	if hasError(res, CodeGradeBelowMinimum) {
		t.Error("grade equal to minimum should pass")
	}
}

func TestBankAccountAndIFSCMismatch(t *testing.T) {
	engine := NewEngine(0.8, nil)

	doc := pdfDoc(
		ocr.Field{FieldName: "account_number", Value: "123456789012", Confidence: 0.9, DataType: ocr.DataTypeText},
		ocr.Field{FieldName: "ifsc_code", Value: "ABCD0123456", Confidence: 0.9, DataType: ocr.DataTypeText},
	)
	doc.DocumentType = "bank_statement"

	res := engine.Validate(doc, &ClaimData{BankAccount: "123456789012", IFSCCode: "ABCD0654321"}, nil)
	if !hasError(res, CodeIFSCCodeMismatch) {
		t.Error("expected IFSC_CODE_MISMATCH for ABCD0123456 vs ABCD0654321")
	}
	if hasError(res, CodeAccountNumberMismatch) {
		t.Error("matching account number should not error")
	}
	if res.IsValid {
		t.Error("IFSC mismatch should fail validation")
	}

	res = engine.Validate(doc, &ClaimData{BankAccount: "999999999999", IFSCCode: "ABCD0123456"}, nil)
	if !hasError(res, CodeAccountNumberMismatch) {
		t.Error("expected ACCOUNT_NUMBER_MISMATCH")
	}
}
