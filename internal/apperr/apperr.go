// Package apperr defines the error kinds the workflow layer reports.
// Services wrap these sentinels with context via fmt.Errorf("...: %w", ...)
// and handlers map them to HTTP statuses with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: entity or token absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict: token already used, duplicate membership, duplicate name.
	ErrConflict = errors.New("conflict")
	// ErrExpired: invite token past its TTL.
	ErrExpired = errors.New("expired")
	// ErrValidation: malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrExternal: storage / detection / LLM call failed.
	ErrExternal = errors.New("external service error")
	// ErrForbidden: authenticated but not allowed.
	ErrForbidden = errors.New("forbidden")
)

func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

func Conflict(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrConflict)
}

func Expired(what string) error {
	return fmt.Errorf("%s: %w", what, ErrExpired)
}

func Validation(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrValidation)
}

func External(step string, err error) error {
	return fmt.Errorf("%s: %v: %w", step, err, ErrExternal)
}

func Forbidden(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrForbidden)
}
