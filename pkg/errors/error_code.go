package errors

// ErrorCode identifies a category of engine failure.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidCapital       ErrorCode = 101
	ErrCodeInvalidDateRange     ErrorCode = 102
	ErrCodeMissingStrategy      ErrorCode = 103
	ErrCodeInvalidParameter     ErrorCode = 104
	ErrCodeUnknownMetric        ErrorCode = 105
	ErrCodeVersionMismatch      ErrorCode = 106

	// Data errors (200-299)
	ErrCodeNoData           ErrorCode = 200
	ErrCodeInsufficientBars ErrorCode = 201
	ErrCodeMalformedData    ErrorCode = 202

	// Execution errors (400-499)
	ErrCodeStrategyEvaluation ErrorCode = 400
	ErrCodeStrategyNotFound   ErrorCode = 401

	// Operation errors (600-699)
	ErrCodeOperationCancelled ErrorCode = 600
	ErrCodeStoreFailed        ErrorCode = 601
)

// Category groups error codes into the failure classes the engine reports
// to callers.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryData          Category = "data"
	CategoryExecution     Category = "execution"
	CategoryOperation     Category = "operation"
	CategoryUnknown       Category = "unknown"
)

// CategoryOf returns the failure class for a given error code.
func CategoryOf(code ErrorCode) Category {
	switch {
	case code >= 100 && code < 200:
		return CategoryConfiguration
	case code >= 200 && code < 300:
		return CategoryData
	case code >= 400 && code < 500:
		return CategoryExecution
	case code >= 600 && code < 700:
		return CategoryOperation
	default:
		return CategoryUnknown
	}
}
