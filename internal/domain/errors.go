package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNetwork      = errors.New("cannot reach server")
	ErrUnauthorized = errors.New("authentication required")
	ErrValidation   = errors.New("invalid data")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")

	ErrAlreadyLiked = errors.New("post already liked on this device")
)

// APIError is a failed exchange with the backend. Kind is one of the
// sentinel errors above so callers can branch with errors.Is.
type APIError struct {
	Kind    error
	Status  int
	Message string // server supplied, may be empty
	Err     error  // underlying transport error, if any
}

func (e *APIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.Status)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ValidationError reports form fields that failed client-side checks.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "fill in all fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// UserMessage turns err into the notice shown to the user. fallback is used
// when nothing more specific is known.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}

	var apiErr *APIError
	hasAPI := errors.As(err, &apiErr)

	switch {
	case errors.Is(err, ErrNetwork):
		return "cannot reach server, check your connection"
	case errors.Is(err, ErrAlreadyLiked):
		return "you already liked this post"
	case errors.Is(err, ErrUnauthorized):
		if hasAPI && apiErr.Message != "" {
			return apiErr.Message
		}
		return "you need to be logged in"
	case errors.Is(err, ErrValidation):
		if hasAPI && apiErr.Message != "" {
			return apiErr.Message
		}
		return "invalid data"
	case errors.Is(err, ErrNotFound):
		return "not found"
	}

	if hasAPI && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
