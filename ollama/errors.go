package ollama

import "fmt"

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	// Message is the "error" field of the response body, or the raw body
	// when it is not JSON.
	Message   string
	RequestID string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ollama: %s", e.Status)
	}

	return fmt.Sprintf("ollama: %s: %s", e.Status, e.Message)
}

// StreamError is returned when the server reports an error inside a stream
// that had already started successfully.
type StreamError struct {
	Message   string
	RequestID string
}

func (e *StreamError) Error() string {
	return "ollama: stream error: " + e.Message
}
