package ocr

import "testing"

func TestRegistryLookupIsCaseInsensitive(t *testing.T) {
	reg := NewExtractorRegistry()

	for _, docType := range []string{"income", "Income_Certificate", "SALARY_SLIP", "medical_bill", "education", "bank_statement"} {
		if reg.Lookup(docType) == nil {
			t.Errorf("expected extractor for %q", docType)
		}
	}
	if reg.Lookup("rental_agreement") != nil {
		t.Errorf("expected no extractor for unknown document type")
	}
}

func TestIncomeExtractor(t *testing.T) {
	reg := NewExtractorRegistry()
	text := "SALARY CERTIFICATE\nEmployee Name: Ravi Kumar\nEmp ID: EMP123\nGross Salary: Rs. 45,000.00\nDesignation: Analyst"

	fields := reg.Lookup("income_certificate").Extract(text)

	byName := indexFields(fields)
	if got := byName["employee_id"].Value; got != "EMP123" {
		t.Errorf("employee_id = %q, want EMP123", got)
	}
	if got := byName["salary_amount"].Value; got != "45,000.00" {
		t.Errorf("salary_amount = %q, want 45,000.00", got)
	}
	if byName["salary_amount"].DataType != DataTypeCurrency {
		t.Errorf("salary_amount dataType = %q", byName["salary_amount"].DataType)
	}
	if c := byName["employee_id"].Confidence; c < 0.8 || c > 0.9 {
		t.Errorf("synthetic confidence %v outside [0.8,0.9]", c)
	}
}

func TestBankExtractor(t *testing.T) {
	reg := NewExtractorRegistry()
	text := "STATE BANK\nAccount Holder: Anita Shah\nA/C No: 123456789012\nIFSC Code: ABCD0123456"

	byName := indexFields(reg.Lookup("bank").Extract(text))
	if got := byName["account_number"].Value; got != "123456789012" {
		t.Errorf("account_number = %q", got)
	}
	if got := byName["ifsc_code"].Value; got != "ABCD0123456" {
		t.Errorf("ifsc_code = %q", got)
	}
}

func TestExtractorEmitsAtMostOneFieldPerConcept(t *testing.T) {
	reg := NewExtractorRegistry()
	text := "Bill Amount: 1000\nTotal Amount: 2000"

	fields := reg.Lookup("medical").Extract(text)
	seen := 0
	for _, f := range fields {
		if f.FieldName == "bill_amount" {
			seen++
		}
	}
	if seen != 1 {
		t.Errorf("expected exactly one bill_amount field, got %d", seen)
	}
}

func indexFields(fields []Field) map[string]Field {
	out := make(map[string]Field, len(fields))
	for _, f := range fields {
		if _, ok := out[f.FieldName]; !ok {
			out[f.FieldName] = f
		}
	}
	return out
}
