package domain

import (
	"errors"
	"strings"
)

var (
	ErrUnknownProduct     = errors.New("unknown product")
	ErrNotInCart          = errors.New("product not in cart")
	ErrUnknownFunction    = errors.New("unknown function")
	ErrInvalidArguments   = errors.New("invalid function arguments")
	ErrNoFunctionCall     = errors.New("no function call in completion")
	ErrCompletion         = errors.New("completion failed")
	ErrQuantityOutOfRange = errors.New("quantity out of range")
	ErrQuantityStep       = errors.New("quantity not a multiple of step")
)

const (
	MsgClarify         = "Can you please provide more information or clarify your request?"
	MsgCompletionError = "There was an error on completions API."
)

// SubjectError attaches the name the user referred to, so the alert can
// repeat it back verbatim.
type SubjectError struct {
	Err     error
	Subject string
}

func (e *SubjectError) Error() string {
	return e.Err.Error() + ": " + e.Subject
}

func (e *SubjectError) Unwrap() error {
	return e.Err
}

func NewSubjectError(err error, subject string) error {
	return &SubjectError{Err: err, Subject: subject}
}

// UserMessage renders err as the alert text shown to the shopper.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	subject := ""
	var se *SubjectError
	if errors.As(err, &se) {
		subject = se.Subject
	}

	switch {
	case errors.Is(err, ErrUnknownProduct):
		return "We do not have " + subject
	case errors.Is(err, ErrNotInCart):
		return subject + " is not present in the cart."
	case errors.Is(err, ErrUnknownFunction):
		return "There is no function to call with name: " + subject
	case errors.Is(err, ErrNoFunctionCall), errors.Is(err, ErrEmptyTranscript):
		return MsgClarify
	case errors.Is(err, ErrUnsupportedAudio):
		return "This recording format is not supported."
	case errors.Is(err, ErrSilentAudio):
		return "No speech was detected in the recording."
	case errors.Is(err, ErrCompletion):
		return MsgCompletionError
	case errors.Is(err, ErrInvalidArguments):
		return strings.TrimSpace("Could not understand the arguments for " + subject)
	}

	return err.Error()
}

// IsUserError reports whether err is a cart-level rejection that should be
// shown to the shopper rather than treated as a service failure.
func IsUserError(err error) bool {
	return errors.Is(err, ErrUnknownProduct) ||
		errors.Is(err, ErrNotInCart) ||
		errors.Is(err, ErrUnknownFunction) ||
		errors.Is(err, ErrInvalidArguments) ||
		errors.Is(err, ErrNoFunctionCall) ||
		errors.Is(err, ErrEmptyTranscript) ||
		errors.Is(err, ErrSilentAudio) ||
		errors.Is(err, ErrUnsupportedAudio) ||
		errors.Is(err, ErrQuantityOutOfRange) ||
		errors.Is(err, ErrQuantityStep)
}

var (
	ErrUnsupportedAudio = errors.New("unsupported audio format")
	ErrSilentAudio      = errors.New("no speech detected")
	ErrEmptyTranscript  = errors.New("empty transcript")
)
