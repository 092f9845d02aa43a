package fetcher

import "errors"

// Sentinel errors returned by ReadabilityFetcher, distinguishing the
// reasons content enhancement can fail so callers can log precisely while
// still falling back to feed-provided content (ingest.Service.enhanceContent
// never propagates these — a failed fetch degrades, it doesn't abort).
var (
	ErrInvalidURL        = errors.New("invalid URL or unsupported scheme")
	ErrTooManyRedirects  = errors.New("too many redirects")
	ErrBodyTooLarge      = errors.New("response body too large")
	ErrTimeout           = errors.New("request timeout")
	ErrReadabilityFailed = errors.New("content extraction failed")
	ErrPrivateIP         = errors.New("target resolves to a private or loopback address")
)
