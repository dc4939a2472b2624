package gateway

import "fmt"

// ConfigurationError means the endpoint for an operation category is not
// set. The call is never attempted and nothing retries it.
type ConfigurationError struct {
	Op      string
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: endpoint not configured (set %s)", e.Op, e.Setting)
}

// TransportError means a single round trip failed: non-success HTTP status,
// a network error, or an unparseable payload. The gateway itself never
// retries; the caller decides.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: remote returned HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
