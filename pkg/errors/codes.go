package errors

import (
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal        ErrorCode = "COMMON_001"
	ErrCodeBadRequest      ErrorCode = "COMMON_002"
	ErrCodeNotFound        ErrorCode = "COMMON_005"
	ErrCodeTimeout         ErrorCode = "COMMON_009"
	ErrCodeValidation      ErrorCode = "COMMON_010"
	ErrCodeSerialization   ErrorCode = "COMMON_011"
	ErrCodeDatabaseError   ErrorCode = "COMMON_012"
	ErrCodeExternalService ErrorCode = "COMMON_014"
	ErrCodeCanceled        ErrorCode = "COMMON_017"
)

// Aliases used across the code base.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Record Source Error Codes
const (
	ErrCodeSourceRead       ErrorCode = "SRC_001"
	ErrCodeMalformedRecord  ErrorCode = "SRC_002"
	ErrCodeSourceURIInvalid ErrorCode = "SRC_003"
)

// Closure Module Error Codes
const (
	ErrCodeUnknownTerm ErrorCode = "CLO_001"
)

// Scoring Module Error Codes
const (
	ErrCodeReferenceKeyNotFound ErrorCode = "SCO_001"
	ErrCodeUndefinedSimilarity  ErrorCode = "SCO_002"
)

// Process exit codes returned by the CLI.
const (
	ExitOK                   = 0
	ExitGeneric              = 1
	ExitUsage                = 2
	ExitSourceRead           = 3
	ExitMalformedRecord      = 4
	ExitUnknownTerm          = 5
	ExitReferenceKeyNotFound = 6
	ExitUndefinedSimilarity  = 7
)

// ErrorCodeExitStatus maps ErrorCodes to process exit codes.
var ErrorCodeExitStatus = map[ErrorCode]int{
	CodeOK:                      ExitOK,
	ErrCodeBadRequest:           ExitUsage,
	ErrCodeValidation:           ExitUsage,
	ErrCodeSourceURIInvalid:     ExitUsage,
	ErrCodeSourceRead:           ExitSourceRead,
	ErrCodeMalformedRecord:      ExitMalformedRecord,
	ErrCodeUnknownTerm:          ExitUnknownTerm,
	ErrCodeReferenceKeyNotFound: ExitReferenceKeyNotFound,
	ErrCodeUndefinedSimilarity:  ExitUndefinedSimilarity,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:        "internal error",
	ErrCodeBadRequest:      "bad request",
	ErrCodeNotFound:        "resource not found",
	ErrCodeTimeout:         "operation timed out",
	ErrCodeValidation:      "validation failed",
	ErrCodeSerialization:   "serialization failed",
	ErrCodeDatabaseError:   "database error",
	ErrCodeExternalService: "external service error",
	ErrCodeCanceled:        "operation canceled",

	ErrCodeSourceRead:       "record source could not be read",
	ErrCodeMalformedRecord:  "record does not have exactly two fields",
	ErrCodeSourceURIInvalid: "invalid record source URI",

	ErrCodeUnknownTerm: "term has no closure entry",

	ErrCodeReferenceKeyNotFound: "reference key not found in candidate map",
	ErrCodeUndefinedSimilarity:  "similarity undefined for two empty sets",
}

// ExitCodeFor returns the process exit code for an ErrorCode.
func ExitCodeFor(code ErrorCode) int {
	if status, ok := ErrorCodeExitStatus[code]; ok {
		return status
	}
	return ExitGeneric
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsInputError returns true if the ErrorCode is caused by the data or flags the
// caller supplied rather than by the environment.
func IsInputError(code ErrorCode) bool {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeSourceURIInvalid,
		ErrCodeMalformedRecord, ErrCodeUnknownTerm, ErrCodeReferenceKeyNotFound,
		ErrCodeUndefinedSimilarity:
		return true
	default:
		return false
	}
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
