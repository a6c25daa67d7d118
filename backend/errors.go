package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// ErrMalformedResponse marks a 2xx answer whose body is not JSON or has no answer field.
var ErrMalformedResponse = errors.New("malformed backend response")

const (
	maxErrorBodyBytes = 64 << 10

	// maxResponseBodyBytes bounds a successful answer; anything larger is treated as malformed.
	maxResponseBodyBytes = 4 << 20

	maxErrorSnippetBytes = 200
)

// Error describes one failed attempt at talking to the backend.
type Error struct {
	Attempt int

	// StatusCode is 0 when no response was received.
	StatusCode int

	// Body is a truncated copy of a non-2xx response body.
	Body []byte

	Cause error

	Retryable bool
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "attempt %d", e.Attempt)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": http %d", e.StatusCode)
		if text := http.StatusText(e.StatusCode); text != "" {
			b.WriteString(" ")
			b.WriteString(text)
		}
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if body := strings.TrimSpace(string(e.Body)); body != "" {
		body = truncate(body, maxErrorSnippetBytes)
		b.WriteString(": ")
		b.WriteString(body)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func IsRetryable(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Retryable
}

// FailureMessage renders err the way it is shown to a person who asked a question.
func FailureMessage(err error) string {
	if errors.Is(err, ErrMalformedResponse) {
		return fmt.Sprintf("Unexpected response from backend service: %v", err)
	}
	return fmt.Sprintf("Error connecting to backend service: %v", err)
}

// truncate shortens s to at most n bytes without splitting a rune, marking the cut with "...".
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
