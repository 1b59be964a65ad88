package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// statusTexts maps well-known HTTP failure statuses to the human-readable
// text reported to operators. Any other non-2xx status classifies as
// "Request Error". Process-wide constant, never mutated.
var statusTexts = map[int]string{
	http.StatusUnauthorized: "Authentication Error",
	http.StatusForbidden:    "Authorization Error",
	http.StatusNotFound:     "Not Found",
	http.StatusConflict:     "Conflict",
}

// ErrorOutcome is the classification of a well-formed non-2xx response.
// It is returned as a value, never as a Go error: error returns are
// reserved for transport-level failures.
type ErrorOutcome struct {
	StatusCode    int    `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	// Unrecoverable is true exactly when the credential was rejected
	// (401): the caller should take no further action for this customer
	// in this run.
	Unrecoverable bool `json:"unrecoverable"`
}

func (e *ErrorOutcome) String() string {
	return fmt.Sprintf("%d %s", e.StatusCode, e.StatusMessage)
}

// Outcome is the result of classifying a response: either a decoded
// success payload or a failure classification, never both.
type Outcome[T any] struct {
	Payload T
	Failure *ErrorOutcome
}

// OK reports whether the response classified as a success.
func (o Outcome[T]) OK() bool { return o.Failure == nil }

// Classify turns an HTTP response into an Outcome. A 2xx response has its
// JSON body decoded into T; any other status becomes an ErrorOutcome. The
// response body is always closed. Only a malformed success body yields an
// error.
func Classify[T any](resp *http.Response) (Outcome[T], error) {
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var payload T
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return Outcome[T]{}, fmt.Errorf("decoding response body: %w", err)
		}
		return Outcome[T]{Payload: payload}, nil
	}

	return Outcome[T]{Failure: classifyStatus(resp)}, nil
}

// classifyStatus builds the failure classification for a non-2xx response.
// A 400 carries the server's own status text through verbatim; everything
// else maps through the static table.
func classifyStatus(resp *http.Response) *ErrorOutcome {
	msg, ok := statusTexts[resp.StatusCode]
	if !ok {
		msg = "Request Error"
	}
	if resp.StatusCode == http.StatusBadRequest {
		msg = statusText(resp)
	}
	return &ErrorOutcome{
		StatusCode:    resp.StatusCode,
		StatusMessage: msg,
		Unrecoverable: resp.StatusCode == http.StatusUnauthorized,
	}
}

// statusText extracts the reason phrase from a response's status line
// ("400 Bad Request" → "Bad Request").
func statusText(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}
