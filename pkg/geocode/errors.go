package geocode

import (
	"errors"
	"fmt"

	"github.com/sells-group/georef/internal/resilience"
)

// Kind classifies a provider failure for the retry policy.
type Kind int

const (
	// KindOther is any failure not covered below; it is never retried.
	KindOther Kind = iota
	// KindTimeout means the provider did not answer in time.
	KindTimeout
	// KindService is a provider-side failure (5xx, quota, unreadable body).
	KindService
	// KindQuery means the provider rejected the request as invalid.
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindService:
		return "service"
	case KindQuery:
		return "query"
	default:
		return "other"
	}
}

// Error is a classified provider failure.
type Error struct {
	Kind       Kind
	Provider   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("geocode: %s %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("geocode: %s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, provider string, status int, err error) *Error {
	return &Error{Kind: kind, Provider: provider, StatusCode: status, Err: err}
}

// KindOf returns the failure kind of err. Unclassified deadline or network
// timeouts are reported as KindTimeout.
func KindOf(err error) Kind {
	if err == nil {
		return KindOther
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	if resilience.IsTimeout(err) {
		return KindTimeout
	}
	return KindOther
}

// kindForStatus maps a non-200 HTTP status to a failure kind.
func kindForStatus(status int) Kind {
	switch {
	case status == 408:
		return KindTimeout
	case resilience.IsTransientHTTPStatus(status), status >= 500:
		return KindService
	case status == 400:
		return KindQuery
	default:
		return KindOther
	}
}
