package common

import (
	"errors"
	"fmt"
)

// Billing error taxonomy. Validation errors abort before any write; storage
// errors abort the whole transaction, so callers may retry the operation.
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrBillNotFound     = errors.New("bill not found")
	ErrInvalidReading   = errors.New("current reading is less than previous reading")
	ErrInvalidAmount    = errors.New("payment amount must be positive")
	ErrOverpayment      = errors.New("payment amount exceeds bill balance")
)

// IsNotFound reports whether err maps to a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) || errors.Is(err, ErrBillNotFound)
}

// IsValidation reports whether err is a caller input violation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidReading) || errors.Is(err, ErrInvalidAmount) || errors.Is(err, ErrOverpayment)
}

// SecureErrorMessage creates standardized error messages to prevent information leakage
func SecureErrorMessage(operation string, err error) error {
	if err == nil {
		return nil
	}

	// Keep taxonomy errors intact so handlers can map them to status codes
	if IsNotFound(err) || IsValidation(err) {
		return err
	}

	return fmt.Errorf("failed to %s: operation could not be completed", operation)
}
