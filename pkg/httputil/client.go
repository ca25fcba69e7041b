package httputil

import (
	"crypto/tls"
	"net/http"
	"time"
)

// DefaultTimeout bounds each index request.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient creates an HTTP client with a standard timeout for index
// requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// NewInsecureHTTPClient creates an HTTP client that skips TLS certificate
// verification, for sources declared with verify_ssl = false.
func NewInsecureHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	return &http.Client{
		Timeout:   DefaultTimeout,
		Transport: transport,
	}
}

// ClientFor returns a client appropriate for a source's TLS policy.
func ClientFor(verifySSL bool) *http.Client {
	if verifySSL {
		return NewHTTPClient()
	}
	return NewInsecureHTTPClient()
}
