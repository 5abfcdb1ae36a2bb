package validation

// Error and warning codes reported in validation results.
const (
	CodeFileSizeExceeded        = "FILE_SIZE_EXCEEDED"
	CodeInvalidFileType         = "INVALID_FILE_TYPE"
	CodeLowConfidence           = "LOW_CONFIDENCE"
	CodeLowFieldConfidence      = "LOW_FIELD_CONFIDENCE"
	CodeDataMismatch            = "DATA_MISMATCH"
	CodeInvalidCurrencyFormat   = "INVALID_CURRENCY_FORMAT"
	CodeInvalidPercentageFormat = "INVALID_PERCENTAGE_FORMAT"
	CodeInvalidDateFormat       = "INVALID_DATE_FORMAT"
	CodeInvalidNumberFormat     = "INVALID_NUMBER_FORMAT"
	CodeRequiredFieldMissing    = "REQUIRED_FIELD_MISSING"
	CodeExpectedValueMismatch   = "EXPECTED_VALUE_MISMATCH"
	CodePatternMismatch         = "PATTERN_MISMATCH"
	CodeDataTypeMismatch        = "DATA_TYPE_MISMATCH"
	CodeLowOCRConfidence        = "LOW_OCR_CONFIDENCE"
	CodeClaimExceedsSalary      = "CLAIM_EXCEEDS_SALARY"
	CodeEmployeeIDMismatch      = "EMPLOYEE_ID_MISMATCH"
	CodeAmountDiscrepancy       = "AMOUNT_DISCREPANCY"
	CodeNameSimilarityLow       = "NAME_SIMILARITY_LOW"
	CodeGradeBelowMinimum       = "GRADE_BELOW_MINIMUM"
	CodeAccountNumberMismatch   = "ACCOUNT_NUMBER_MISMATCH"
	CodeIFSCCodeMismatch        = "IFSC_CODE_MISMATCH"
	CodeValidationError         = "VALIDATION_ERROR"
	CodeExtractionFailed        = "EXTRACTION_FAILED"
)
