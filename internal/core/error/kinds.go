package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Collaborator failure kinds. Callers branch on these with errors.Is; none of
// them is surfaced to an end user as-is.
var (
	// ErrClassifierUnavailable means the intent classifier could not be reached or timed out.
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	// ErrClassifierMalformed means the classifier replied but the reply is not a usable plan.
	ErrClassifierMalformed = errors.New("classifier reply malformed")
	// ErrGeneratorUnavailable means the text generator failed or timed out.
	ErrGeneratorUnavailable = errors.New("generator unavailable")
	// ErrSearchUnavailable means the part search backend failed or timed out.
	ErrSearchUnavailable = errors.New("search unavailable")
	// ErrReferenceLoad means the reference maps could not be read or decoded.
	ErrReferenceLoad = errors.New("reference data load failed")
	// ErrSessionNotFound means no session is stored for a conversation.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput marks a request rejected before it reaches the agent.
	ErrInvalidInput = errors.New("invalid input")
)

// Wrap attaches kind to cause so that errors.Is matches both.
func Wrap(kind error, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// NotFound builds a 404 AppError for a missing session.
func NotFound(conversationID string) *AppError {
	return New(fmt.Errorf("%w: %s", ErrSessionNotFound, conversationID), http.StatusNotFound, "session not found")
}

// BadRequest builds a 400 AppError with a safe message.
func BadRequest(message string) *AppError {
	return New(ErrInvalidInput, http.StatusBadRequest, message)
}
