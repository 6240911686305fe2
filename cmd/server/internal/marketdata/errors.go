package marketdata

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an upstream fetch failure.
type ErrorKind string

const (
	KindInvalidSymbol ErrorKind = "invalid_symbol" // structurally empty response
	KindNoData        ErrorKind = "no_data"        // response without a daily series
	KindRateLimit     ErrorKind = "rate_limit"     // provider is throttling us
	KindAPIError      ErrorKind = "api_error"      // explicit upstream error body
	KindFetchFailed   ErrorKind = "fetch_failed"   // transport fault or unparseable data
)

// FetchError is the sole channel by which upstream failure detail crosses
// the client boundary. Expected failure modes never surface as anything else.
type FetchError struct {
	Kind    ErrorKind
	Message string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("marketdata: %s: %s", e.Kind, e.Message)
}

func newFetchError(kind ErrorKind, format string, args ...interface{}) *FetchError {
	return &FetchError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from a fetch error. Unrecognized
// errors report KindFetchFailed.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindFetchFailed
}
