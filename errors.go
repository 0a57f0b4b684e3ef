package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInputMissing is returned when either the text or the style is empty.
var ErrInputMissing = errors.New("Fill in both text and style fields")

var (
	ErrStyleNotFound     = errors.New("style not found")
	ErrSearchUnavailable = errors.New("style search unavailable")
	ErrBlocked           = errors.New("blocked by anti-bot page")
	ErrMissingTokens     = errors.New("Failed to extract required tokens")
	ErrMalformedResponse = errors.New("malformed generation response")
	ErrNavigationTimeout = errors.New("navigation timeout")
)

// =============================================================================
// Resolver Errors
// =============================================================================

// StyleNotFoundError reports that a resolver found no style page for a name.
type StyleNotFoundError struct {
	Style string
	Via   string
}

func (e *StyleNotFoundError) Error() string {
	return fmt.Sprintf("Style '%s' not found via %s", e.Style, e.Via)
}

func (e *StyleNotFoundError) Is(target error) bool {
	return target == ErrStyleNotFound
}

// SearchUnavailableError wraps the transport failure of a search call.
type SearchUnavailableError struct {
	Via string
	Err error
}

func (e *SearchUnavailableError) Error() string {
	return fmt.Sprintf("%s search failed: %v", e.Via, e.Err)
}

func (e *SearchUnavailableError) Unwrap() error {
	return e.Err
}

func (e *SearchUnavailableError) Is(target error) bool {
	return target == ErrSearchUnavailable
}

// =============================================================================
// Page Errors
// =============================================================================

// BlockedError indicates an interstitial was served instead of content.
type BlockedError struct {
	Vendor string
	Stage  string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("Blocked by %s on %s", e.Vendor, e.Stage)
}

func (e *BlockedError) Is(target error) bool {
	return target == ErrBlocked
}

// MissingTokensError lists the hidden form fields that were absent or empty.
type MissingTokensError struct {
	Missing []string
}

func (e *MissingTokensError) Error() string {
	return fmt.Sprintf("%s (missing: %s)", ErrMissingTokens.Error(), strings.Join(e.Missing, ", "))
}

func (e *MissingTokensError) Is(target error) bool {
	return target == ErrMissingTokens
}

// =============================================================================
// Submission Errors
// =============================================================================

// ServerError is a non-success HTTP status from the generation endpoint.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("Server returned %d", e.Status)
}

// GenerationRejectedError carries the raw JSON body when success is false.
type GenerationRejectedError struct {
	Payload string
}

func (e *GenerationRejectedError) Error() string {
	return "Ephoto error: " + e.Payload
}

// FailureMessage renders err as the terminal log line shown to the user.
// Classified failures carry their own message, anything else is reported as a
// runtime error.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		notFound *StyleNotFoundError
		search   *SearchUnavailableError
		blocked  *BlockedError
		status   *ServerError
		rejected *GenerationRejectedError
	)

	switch {
	case errors.Is(err, ErrInputMissing):
		return ErrInputMissing.Error()
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &search):
		return search.Error()
	case errors.As(err, &blocked):
		return blocked.Error()
	case errors.Is(err, ErrMissingTokens):
		return ErrMissingTokens.Error()
	case errors.As(err, &status):
		return status.Error()
	case errors.As(err, &rejected):
		return rejected.Error()
	case errors.Is(err, ErrMalformedResponse):
		return "Malformed response: " + err.Error()
	case errors.Is(err, ErrNavigationTimeout):
		return "Navigation timed out: " + err.Error()
	}

	return "Runtime error: " + err.Error()
}

// timeoutErrorPatterns are substrings of timeout errors that don't implement net.Error.
var timeoutErrorPatterns = []string{
	"i/o timeout",
	"context deadline exceeded",
	"TLS handshake timeout",
	"Client.Timeout exceeded",
	"Timeout",
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := err.Error()
	for _, pattern := range timeoutErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
