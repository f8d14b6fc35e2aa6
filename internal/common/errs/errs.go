package errs

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrMissingReferralTarget = errors.New("missing referral target")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrPersistence           = errors.New("persistence failure")
	ErrValidation            = errors.New("validation failed")
)

// Kind is the stable identifier calling layers map to messages and status codes.
type Kind string

const (
	KindNotFound              Kind = "NOT_FOUND"
	KindInvalidTransition     Kind = "INVALID_TRANSITION"
	KindMissingReferralTarget Kind = "MISSING_REFERRAL_TARGET"
	KindUnauthorized          Kind = "UNAUTHORIZED"
	KindPersistence           Kind = "PERSISTENCE_FAILURE"
	KindValidation            Kind = "VALIDATION"
	KindInternal              Kind = "INTERNAL"
)

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrMissingReferralTarget):
		return KindMissingReferralTarget
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindInternal
	}
}

type persistenceError struct {
	cause error
}

func (e *persistenceError) Error() string { return e.cause.Error() }

func (e *persistenceError) Unwrap() []error { return []error{ErrPersistence, e.cause} }

// Persistence wraps a storage error so it reports KindPersistence.
// ErrNotFound passes through untouched.
func Persistence(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &persistenceError{cause: pkgerrors.Wrap(err, msg)}
}

// TransitionError carries the rejected status/action pair.
type TransitionError struct {
	From   string
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s is not allowed from %s", e.Action, e.From)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// Validation marks err as a caller input problem.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

func InvalidTransition(from, action string) error {
	return &TransitionError{From: from, Action: action}
}
