package databricks

import (
	"fmt"
	"strings"
)

// ConfigurationError reports connection settings missing at
// construction time, before any network call is attempted.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("databricks: missing configuration: %s", strings.Join(e.Missing, ", "))
}

// UnsupportedMessageTypeError means the caller supplied a message
// outside the closed variant set. This is a contract violation, never
// retried.
type UnsupportedMessageTypeError struct {
	Type string
}

func (e *UnsupportedMessageTypeError) Error() string {
	return fmt.Sprintf("databricks: unsupported message type %s", e.Type)
}

// TransportError means the serving endpoint kept failing for every
// permitted attempt. The last underlying fault is preserved.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("databricks: call failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError means a tool call in the response carried
// arguments that are not valid JSON.
type MalformedResponseError struct {
	ToolCallID string
	Err        error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("databricks: malformed tool call arguments (id=%q): %v", e.ToolCallID, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
