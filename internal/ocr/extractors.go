package ocr

import (
	"regexp"
	"strings"
)

// FieldExtractor recovers domain fields the generic key/value pass misses by
// scanning the assembled full text.
type FieldExtractor interface {
	Extract(text string) []Field
}

// ExtractorRegistry maps a document-type key to its extractor. Lookup is
// case-insensitive and matches registered keys as substrings, so
// "income_certificate" and "salary_slip" both resolve to the income rules.
type ExtractorRegistry struct {
	keys       []string
	extractors map[string]FieldExtractor
}

// NewExtractorRegistry returns a registry pre-loaded with the income,
// medical, education, and bank rule sets.
func NewExtractorRegistry() *ExtractorRegistry {
	r := &ExtractorRegistry{extractors: make(map[string]FieldExtractor)}

	income := newRuleExtractor(incomeRules)
	r.Register("income", income)
	r.Register("salary", income)
	r.Register("medical", newRuleExtractor(medicalRules))
	r.Register("education", newRuleExtractor(educationRules))
	r.Register("bank", newRuleExtractor(bankRules))
	return r
}

// Register binds a document-type key to an extractor. Keys registered first
// win when several match.
func (r *ExtractorRegistry) Register(key string, ex FieldExtractor) {
	key = strings.ToLower(strings.TrimSpace(key))
	if _, exists := r.extractors[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.extractors[key] = ex
}

// Lookup resolves the extractor for a document type, nil when none applies.
func (r *ExtractorRegistry) Lookup(documentType string) FieldExtractor {
	docType := strings.ToLower(strings.TrimSpace(documentType))
	if ex, ok := r.extractors[docType]; ok {
		return ex
	}
	for _, key := range r.keys {
		if strings.Contains(docType, key) {
			return r.extractors[key]
		}
	}
	return nil
}

// patternRule emits at most one field per target concept. The first matching
// pattern wins; confidence is synthetic since these are not provider fields.
type patternRule struct {
	fieldName  string
	dataType   DataType
	confidence float64
	patterns   []*regexp.Regexp
}

type ruleExtractor struct {
	rules []patternRule
}

func newRuleExtractor(rules []patternRule) *ruleExtractor {
	return &ruleExtractor{rules: rules}
}

func (e *ruleExtractor) Extract(text string) []Field {
	var fields []Field
	for _, rule := range e.rules {
		for _, pattern := range rule.patterns {
			m := pattern.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			value := m[0]
			if len(m) > 1 {
				value = m[1]
			}
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			fields = append(fields, Field{
				FieldName:  rule.fieldName,
				Value:      value,
				Confidence: rule.confidence,
				DataType:   rule.dataType,
			})
			break
		}
	}
	return fields
}

var amountPattern = `(?:rs\.?|inr|₹)?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`

var incomeRules = []patternRule{
	{
		fieldName:  "salary_amount",
		dataType:   DataTypeCurrency,
		confidence: 0.85,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:gross|net|basic|total)?\s*salary\s*[:\-]?\s*` + amountPattern),
			regexp.MustCompile(`(?i)monthly\s+income\s*[:\-]?\s*` + amountPattern),
			regexp.MustCompile(`(?i)ctc\s*[:\-]?\s*` + amountPattern),
		},
	},
	{
		fieldName:  "employee_id",
		dataType:   DataTypeText,
		confidence: 0.9,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)emp(?:loyee)?\.?\s*(?:id|no|code)\s*[:\-#.]?\s*([A-Za-z0-9/-]+)`),
		},
	},
	{
		fieldName:  "employee_name",
		dataType:   DataTypeText,
		confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)employee\s*name\s*[:\-]?\s*([A-Za-z][A-Za-z .]+)`),
			regexp.MustCompile(`(?i)name\s+of\s+employee\s*[:\-]?\s*([A-Za-z][A-Za-z .]+)`),
		},
	},
	{
		fieldName:  "designation",
		dataType:   DataTypeText,
		confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)designation\s*[:\-]?\s*([A-Za-z][A-Za-z .]+)`),
		},
	},
}

var medicalRules = []patternRule{
	{
		fieldName:  "bill_amount",
		dataType:   DataTypeCurrency,
		confidence: 0.85,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:bill|total|net|grand)\s*(?:amount|total)\s*[:\-]?\s*` + amountPattern),
			regexp.MustCompile(`(?i)amount\s+payable\s*[:\-]?\s*` + amountPattern),
		},
	},
	{
		fieldName:  "patient_name",
		dataType:   DataTypeText,
		confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)patient\s*(?:name)?\s*[:\-]?\s*([A-Za-z][A-Za-z .]+)`),
		},
	},
	{
		fieldName:  "bill_date",
		dataType:   DataTypeDate,
		confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:bill|invoice)\s*date\s*[:\-]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		},
	},
	{
		fieldName:  "hospital_name",
		dataType:   DataTypeText,
		confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)hospital\s*(?:name)?\s*[:\-]?\s*([A-Za-z][A-Za-z .&]+)`),
		},
	},
}

var educationRules = []patternRule{
	{
		fieldName:  "grade",
		dataType:   DataTypePercentage,
		confidence: 0.85,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:percentage|marks|cgpa|grade)\s*(?:obtained)?\s*[:\-]?\s*([0-9]{1,3}(?:\.[0-9]+)?)\s*%?`),
		},
	},
	{
		fieldName:  "student_name",
		dataType:   DataTypeText,
		confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)student\s*name\s*[:\-]?\s*([A-Za-z][A-Za-z .]+)`),
			regexp.MustCompile(`(?i)name\s+of\s+(?:the\s+)?student\s*[:\-]?\s*([A-Za-z][A-Za-z .]+)`),
		},
	},
	{
		fieldName:  "roll_number",
		dataType:   DataTypeText,
		confidence: 0.85,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)roll\s*(?:no|number)\s*[:\-.]?\s*([A-Za-z0-9/-]+)`),
		},
	},
	{
		fieldName:  "institution_name",
		dataType:   DataTypeText,
		confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:school|college|university|institution)\s*(?:name)?\s*[:\-]?\s*([A-Za-z][A-Za-z .&]+)`),
		},
	},
}

var bankRules = []patternRule{
	{
		fieldName:  "account_number",
		dataType:   DataTypeText,
		confidence: 0.9,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)a/?c\.?\s*(?:no|number)\s*[:\-.]?\s*([0-9]{9,18})`),
			regexp.MustCompile(`(?i)account\s*(?:no|number)\s*[:\-.]?\s*([0-9]{9,18})`),
		},
	},
	{
		fieldName:  "ifsc_code",
		dataType:   DataTypeText,
		confidence: 0.9,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)ifsc\s*(?:code)?\s*[:\-.]?\s*([A-Z]{4}0[A-Z0-9]{6})`),
		},
	},
	{
		fieldName:  "account_holder",
		dataType:   DataTypeText,
		confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:account\s*holder|customer)\s*(?:name)?\s*[:\-]?\s*([A-Za-z][A-Za-z .]+)`),
		},
	},
	{
		fieldName:  "branch_name",
		dataType:   DataTypeText,
		confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)branch\s*(?:name)?\s*[:\-]?\s*([A-Za-z][A-Za-z .]+)`),
		},
	},
}
