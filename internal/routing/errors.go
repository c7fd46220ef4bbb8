package routing

import "fmt"

// ConfigurationError means the provider cannot be called as configured,
// for example because its API key is missing. No request was sent.
type ConfigurationError struct {
	Provider string
	Msg      string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Msg)
}

// UpstreamError is a non-2xx answer from the provider. Body holds the
// provider's response verbatim.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
}

// TransientError covers failures where the provider gave no usable answer:
// transport errors, unreadable or non-JSON bodies, and an open circuit.
type TransientError struct {
	Provider string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
