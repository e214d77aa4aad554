package convert

import (
	"errors"
	"fmt"
)

// Code tags a conversion failure so the shell can present a short message
// per kind instead of raw low-level errors.
type Code string

const (
	// EmptyInput: the payload or accumulator has no usable content.
	EmptyInput Code = "EMPTY_INPUT"
	// UnsupportedContent: no viable normalizer path for the classified kind.
	UnsupportedContent Code = "UNSUPPORTED_CONTENT"
	// FetchError: network retrieval failed for a URL or remote image.
	FetchError Code = "FETCH_ERROR"
	// EmptyContent: normalization produced zero non-empty chapters.
	EmptyContent Code = "EMPTY_CONTENT"
	// OutputError: the destination could not be written.
	OutputError Code = "OUTPUT_ERROR"
	// CacheError: cache read/write failure. Always downgraded to a miss,
	// never surfaced as a conversion failure.
	CacheError Code = "CACHE_ERROR"
)

// Failure is a tagged conversion error.
type Failure struct {
	Code    Code
	Message string
	cause   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.cause
}

func fail(code Code, cause error, format string, args ...any) *Failure {
	return &Failure{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// CodeOf extracts the failure code from an error chain.
func CodeOf(err error) (Code, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Code, true
	}
	return "", false
}

// IsCode reports whether err carries the given failure code.
func IsCode(err error, code Code) bool {
	got, ok := CodeOf(err)
	return ok && got == code
}
