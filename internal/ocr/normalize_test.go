package ocr

import "testing"

func TestNormalizeFieldName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Employee ID", "employee_id"},
		{"  Gross Salary (Monthly)  ", "gross_salary_monthly"},
		{"A/C No.", "a_c_no"},
		{"IFSC-Code:", "ifsc_code"},
		{"___", ""},
		{"already_normal", "already_normal"},
	}
	for _, tc := range cases {
		if got := NormalizeFieldName(tc.in); got != tc.want {
			t.Errorf("NormalizeFieldName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDetectDataType(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  DataType
	}{
		{"gross_salary", "45000", DataTypeCurrency},
		{"misc", "₹ 1,200.50", DataTypeCurrency},
		{"total_amount", "abc", DataTypeCurrency},
		{"score", "85%", DataTypePercentage},
		{"grade", "8.2", DataTypePercentage},
		{"issue", "12/05/2023", DataTypeDate},
		{"date_of_birth", "unknown", DataTypeDate},
		{"count", "1,234", DataTypeNumber},
		{"count", "12.5", DataTypeNumber},
		{"remarks", "approved by officer", DataTypeText},
	}
	for _, tc := range cases {
		if got := DetectDataType(tc.name, tc.value); got != tc.want {
			t.Errorf("DetectDataType(%q, %q) = %q, want %q", tc.name, tc.value, got, tc.want)
		}
	}
}
