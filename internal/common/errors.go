package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error codes carried by AppError.
const (
	CodeFileNotFound       = "FILE_NOT_FOUND"
	CodeExtractionFailed   = "EXTRACTION_FAILED"
	CodeStructuringFailed  = "STRUCTURING_FAILED"
	CodeNoJSONFound        = "NO_JSON_FOUND"
	CodeJSONParseError     = "JSON_PARSE_ERROR"
	CodePersistFailed      = "PERSIST_FAILED"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeConfigError        = "CONFIG_ERROR"
	jsonParseExcerptLength = 500
)

// Pipeline error kinds. Match with errors.Is.
var (
	ErrFileNotFound      = errors.New("file not found")
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrStructuringFailed = errors.New("structuring failed")
	ErrNoJSONFound       = errors.New("no json found in model response")
	ErrJSONParse         = errors.New("json parse error")
	ErrPersistFailed     = errors.New("persist failed")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConfig            = errors.New("invalid configuration")
)

var kindByCode = map[string]error{
	CodeFileNotFound:      ErrFileNotFound,
	CodeExtractionFailed:  ErrExtractionFailed,
	CodeStructuringFailed: ErrStructuringFailed,
	CodeNoJSONFound:       ErrNoJSONFound,
	CodeJSONParseError:    ErrJSONParse,
	CodePersistFailed:     ErrPersistFailed,
	CodeInvalidInput:      ErrInvalidInput,
	CodeConfigError:       ErrConfig,
}

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes both the kind sentinel for the code and the cause.
func (e *AppError) Unwrap() []error {
	out := make([]error, 0, 2)
	if kind, ok := kindByCode[e.Code]; ok {
		out = append(out, kind)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// NewAppError builds an AppError; cause may be nil.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// JSONParseError is returned when a JSON candidate was located but could not be decoded.
type JSONParseError struct {
	Excerpt string
	Cause   error
}

func (e *JSONParseError) Error() string {
	return fmt.Sprintf("%s: %v; candidate: %s", CodeJSONParseError, e.Cause, e.Excerpt)
}

func (e *JSONParseError) Unwrap() []error {
	return []error{ErrJSONParse, e.Cause}
}

// NewJSONParseError keeps the first 500 characters of the offending text.
func NewJSONParseError(candidate string, cause error) *JSONParseError {
	return &JSONParseError{Excerpt: Excerpt(candidate, jsonParseExcerptLength), Cause: cause}
}

// Excerpt returns at most n runes of s, suffixed with "..." when cut.
func Excerpt(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// ToStatus maps pipeline errors onto gRPC status errors.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrFileNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrExtractionFailed), errors.Is(err, ErrStructuringFailed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, ErrNoJSONFound), errors.Is(err, ErrJSONParse):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalErrorf(format string, args ...interface{}) error {
	return status.Error(codes.Internal, fmt.Sprintf(format, args...))
}
