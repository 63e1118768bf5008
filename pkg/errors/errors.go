// Package errors defines AppError, the one error type every termsim layer
// returns.  The CLI prints it once and derives the exit code from its Code.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

const stackDepth = 32

// captureStack formats the call stack above the caller, skip frames up.
// Runtime frames are dropped.
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	var sb strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for more := true; more; {
		var f runtime.Frame
		f, more = frames.Next()
		if strings.Contains(f.File, "runtime/") {
			continue
		}
		fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
	}
	return sb.String()
}

// AppError carries a code, a message, optional detail (the offending source,
// row, term or key) and an optional cause reachable through errors.Is and
// errors.As.
//
//	return errors.UnknownTerm("GO:0008150")
//	return errors.Wrap(err, errors.ErrCodeSourceRead, "failed to open closure source")
type AppError struct {
	Code    ErrorCode
	Message string
	Detail  string
	Cause   error
	// Stack is where the error was created.  Error() leaves it out.
	Stack string
}

// Error formats as "[<code>] <message>: <detail>: <cause>", omitting empty
// parts.
func (e *AppError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Code.String(), e.Message)
	for _, part := range []string{e.Detail, causeText(e.Cause)} {
		if part != "" {
			sb.WriteString(": ")
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a copy of e with Detail set.  A nil e stays nil.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// newError builds an AppError for the exported constructors below; the stack
// starts at their caller.
func newError(code ErrorCode, message, detail string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Detail:  detail,
		Cause:   cause,
		Stack:   captureStack(2),
	}
}

func New(code ErrorCode, message string) *AppError {
	return newError(code, message, "", nil)
}

// Wrap returns nil for a nil err.  CodeUnknown keeps the code of an *AppError
// inside err and means CodeInternal otherwise.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		code = CodeInternal
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return newError(code, message, "", err)
}

// IsCode reports whether any *AppError in err's chain has code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode returns the code of the outermost *AppError in err's chain, CodeOK
// for nil and CodeUnknown when the chain has no *AppError.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	return ExitCodeFor(GetCode(err))
}

// SourceRead wraps an I/O failure of a record source.
func SourceRead(source string, cause error) *AppError {
	return newError(ErrCodeSourceRead, DefaultMessageForCode(ErrCodeSourceRead), "source="+source, cause)
}

// MalformedRecord reports a row that does not have exactly two fields.
// row is 1-based: the input line for line-oriented sources.
func MalformedRecord(source string, row, fields int) *AppError {
	return newError(ErrCodeMalformedRecord, DefaultMessageForCode(ErrCodeMalformedRecord),
		fmt.Sprintf("source=%s row=%d fields=%d", source, row, fields), nil)
}

// UnknownTerm reports a term that has no entry in the closure map.
func UnknownTerm(term string) *AppError {
	return newError(ErrCodeUnknownTerm, DefaultMessageForCode(ErrCodeUnknownTerm),
		fmt.Sprintf("term=%q", term), nil)
}

func ReferenceKeyNotFound(key string) *AppError {
	return newError(ErrCodeReferenceKeyNotFound, DefaultMessageForCode(ErrCodeReferenceKeyNotFound),
		fmt.Sprintf("key=%q", key), nil)
}

// UndefinedSimilarity reports a Jaccard comparison of two empty sets.
func UndefinedSimilarity() *AppError {
	return newError(ErrCodeUndefinedSimilarity, DefaultMessageForCode(ErrCodeUndefinedSimilarity), "", nil)
}

// NewValidationError reports an invalid setting or argument named by field.
func NewValidationError(field, message string) *AppError {
	return newError(ErrCodeValidation, message, "field="+field, nil)
}

// InvalidParam reports bad command-line usage.
func InvalidParam(message string) *AppError {
	return newError(CodeInvalidParam, message, "", nil)
}

//Personal.AI order the ending
