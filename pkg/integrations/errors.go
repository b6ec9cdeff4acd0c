// Package integrations holds the error vocabulary shared by the
// upstream API clients. The syncer treats any fetch failure as "remote
// unavailable"; the transient flag only informs logging and retry hints.
package integrations

import "fmt"

// APIError is a non-2xx response from an upstream API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d from %s: %s", e.StatusCode, e.Endpoint, e.Body)
}

// Transient reports whether the failure is worth retrying. Rate limits
// and server errors are transient; bad credentials are not.
func (e *APIError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
