package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"github.com/ArowuTest/loyaltybot-backend/internal/retry"
)

// Error kinds returned by the services. Callers compare with errors.Is.
var (
	ErrInvalidFormat       = errors.New("invalid phone number format")
	ErrAccountNotFound     = errors.New("account not found")
	ErrConstraintViolation = errors.New("uniqueness constraint violated")
	ErrStorageFailure      = errors.New("storage failure")
	ErrInvalidAmount       = errors.New("amount must not be zero")
	ErrInvalidCategory     = errors.New("ledger category is required")
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrSelfReferral        = errors.New("an account cannot refer itself")
	ErrTicketNotFound      = errors.New("support ticket not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNotOperator         = errors.New("not an operator")
)

var kinds = []error{
	ErrInvalidFormat,
	ErrAccountNotFound,
	ErrConstraintViolation,
	ErrStorageFailure,
	ErrInvalidAmount,
	ErrInvalidCategory,
	ErrInsufficientPoints,
	ErrSelfReferral,
	ErrTicketNotFound,
	ErrInvalidCredentials,
	ErrNotOperator,
}

func isKind(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// classify converts whatever a transaction returned into one of the error kinds.
func classify(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case isKind(err), errors.Is(err, repositories.ErrUnsupported):
		return err
	case errors.Is(err, retry.ErrConflict), errors.Is(err, repositories.ErrDuplicate):
		return fmt.Errorf("%s: %w: %v", operation, ErrConstraintViolation, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", operation, ErrStorageFailure, err)
	default:
		return fmt.Errorf("%s: %w: %v", operation, ErrStorageFailure, err)
	}
}

// notFound maps a repository miss onto ErrAccountNotFound.
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

// Outcome turns an operation result into the (success, message) pair shown
// to a chat user.
func Outcome(err error) (bool, string) {
	switch {
	case err == nil:
		return true, "Done"
	case errors.Is(err, ErrInvalidFormat):
		return false, "Invalid phone number. Use 11 digits starting with 8, for example 89991234567."
	case errors.Is(err, ErrAccountNotFound):
		return false, "Account not found."
	case errors.Is(err, ErrConstraintViolation):
		return false, "This phone number is being linked right now. Please try again."
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidCategory):
		return false, "Invalid points adjustment."
	case errors.Is(err, ErrInsufficientPoints):
		return false, "Not enough points."
	case errors.Is(err, ErrSelfReferral):
		return false, "You cannot use your own referral code."
	case errors.Is(err, ErrTicketNotFound):
		return false, "Support request not found."
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrNotOperator):
		return false, "Access denied."
	default:
		return false, "Something went wrong. Please try again later."
	}
}
