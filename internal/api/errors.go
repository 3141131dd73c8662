package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrUnauthorized matches a RemoteError caused by a missing, expired or
// rejected token.
var ErrUnauthorized = errors.New("not authenticated")

// NetworkError is a request that never got an HTTP response.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RemoteError is a non-2xx response from the server.
type RemoteError struct {
	Endpoint   string
	StatusCode int
	Message    string // server supplied error/detail text, may be empty
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Endpoint, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Endpoint, e.StatusCode)
}

// Is makes errors.Is(err, ErrUnauthorized) hold for 401 and 403 responses.
func (e *RemoteError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// newRemoteError extracts the message from the usual Django REST error
// shapes: {"error": ...}, {"detail": ...}, or a field -> [messages] map.
func newRemoteError(endpoint string, status int, body []byte) *RemoteError {
	e := &RemoteError{
		Endpoint:   endpoint,
		StatusCode: status,
		Body:       string(body),
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return e
	}
	for _, key := range []string{"error", "detail"} {
		if v, ok := payload[key].(string); ok && v != "" {
			e.Message = v
			return e
		}
	}

	var fields []string
	for field, v := range payload {
		if msgs, ok := v.([]any); ok && len(msgs) > 0 {
			fields = append(fields, fmt.Sprintf("%s: %v", field, msgs[0]))
		}
	}
	sort.Strings(fields)
	e.Message = strings.Join(fields, "; ")
	return e
}
