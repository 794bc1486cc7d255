package fetcher

import "errors"

// Sentinel errors for page fetching. Callers distinguish security rejections
// (ErrInvalidURL, ErrPrivateIP) from transient failures worth retrying.
var (
	ErrInvalidURL       = errors.New("invalid URL")
	ErrPrivateIP        = errors.New("URL resolves to private IP")
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrTimeout          = errors.New("request timed out")
	ErrBodyTooLarge     = errors.New("response body too large")
)
