// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// NewHTTPClient returns a client for node queries. Every sync pass issues a
// burst of requests against the same host, so idle connections are kept.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 8
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
