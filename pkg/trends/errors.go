package trends

import (
	"errors"
	"fmt"
)

// InputErrorKind enumerates every way a raw request can fail validation.
type InputErrorKind int

const (
	EmptyKeywordList InputErrorKind = iota
	TooManyKeywords
	KeywordTooLong
	InvalidGeoCode
	InvalidTimeframe
	UnsupportedTimeframe
)

// String returns a stable machine-readable name for the kind.
func (k InputErrorKind) String() string {
	switch k {
	case EmptyKeywordList:
		return "empty_keyword_list"
	case TooManyKeywords:
		return "too_many_keywords"
	case KeywordTooLong:
		return "keyword_too_long"
	case InvalidGeoCode:
		return "invalid_geo_code"
	case InvalidTimeframe:
		return "invalid_timeframe"
	case UnsupportedTimeframe:
		return "unsupported_timeframe"
	default:
		return "unknown_input_error"
	}
}

// InputError reports a validation failure. It is always produced before any
// network call and is never retried.
type InputError struct {
	Kind    InputErrorKind
	Keyword string // offending keyword, set for KeywordTooLong
	Detail  string
}

func (e *InputError) Error() string {
	if e.Keyword != "" {
		return fmt.Sprintf("%s: %s (keyword %q)", e.Kind, e.Detail, e.Keyword)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// FetchErrorKind enumerates terminal fetch outcomes. Retryability is a
// property of the kind, not something a caller infers from error text.
type FetchErrorKind int

const (
	// EmptyResult means the remote answered with no rows. A valid answer for
	// obscure keyword/geo/timeframe combinations, not a transient failure.
	EmptyResult FetchErrorKind = iota
	// RemoteAPIError wraps a collaborator-reported API failure. Not retried:
	// these indicate malformed requests or permanent failures.
	RemoteAPIError
	// RetriesExhausted means every attempt hit the rate limit.
	RetriesExhausted
	// UnexpectedError wraps anything unclassified, transport failures and
	// malformed payloads included.
	UnexpectedError
)

func (k FetchErrorKind) String() string {
	switch k {
	case EmptyResult:
		return "empty_result"
	case RemoteAPIError:
		return "remote_api_error"
	case RetriesExhausted:
		return "retries_exhausted"
	case UnexpectedError:
		return "unexpected_error"
	default:
		return "unknown_fetch_error"
	}
}

// FetchError is the single error type returned by Fetcher.Fetch.
type FetchError struct {
	Kind     FetchErrorKind
	Attempts int // total collaborator calls, set for RetriesExhausted
	cause    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == RetriesExhausted:
		return fmt.Sprintf("%s: rate limited on all %d attempts", e.Kind, e.Attempts)
	case e.cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	default:
		return e.Kind.String()
	}
}

func (e *FetchError) Unwrap() error { return e.cause }

// ErrRateLimited is the rate-limit signal a TrendsClient reports when the
// remote throttled the request. It is the only retryable client error.
var ErrRateLimited = errors.New("trends client: rate limited")

// APIError is a collaborator-reported API failure (bad request, quota
// exceeded for good, unknown keyword encoding and the like).
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("trends client: api error: %s", e.Message)
}

// TransportError is a network-level failure between us and the remote.
type TransportError struct {
	Message string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("trends client: transport error: %s", e.Message)
}

// AsInputError returns the InputError inside err, if any.
func AsInputError(err error) (*InputError, bool) {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// AsFetchError returns the FetchError inside err, if any.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
