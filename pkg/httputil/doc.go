// Package httputil provides HTTP infrastructure for package index
// clients.
//
// # Overview
//
//   - [NewHTTPClient]: HTTP client construction with a standard timeout
//     and optional TLS verification bypass for sources declared with
//     verify_ssl = false
//   - [Retry]: Automatic retry with exponential backoff
//
// # Retry
//
// [Retry] wraps requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Only errors wrapped in [RetryableError] are retried; everything else
// fails fast. Defaults are 3 attempts with a 1 second base delay that
// doubles after each failure.
package httputil
