package delegation

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes delegation errors.
type ErrorCode string

const (
	// ErrCodeTokenExpired indicates a token outside its temporal window.
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"

	// ErrCodeUsageLimitExceeded indicates the use counter reached its maximum.
	ErrCodeUsageLimitExceeded ErrorCode = "USAGE_LIMIT_EXCEEDED"

	// ErrCodeBrokenChain indicates a delegation chain that is not continuous.
	ErrCodeBrokenChain ErrorCode = "BROKEN_CHAIN"

	// ErrCodeCapabilityNotAllowed indicates a capability outside the
	// chain's effective constraints.
	ErrCodeCapabilityNotAllowed ErrorCode = "CAPABILITY_NOT_ALLOWED"

	// ErrCodeInvalidDelegation indicates a structurally invalid delegation.
	ErrCodeInvalidDelegation ErrorCode = "INVALID_DELEGATION"
)

// Error is a structured delegation error. All delegation failures are
// terminal for the invocation: the caller decides whether to re-request
// with a fresh token.
type Error struct {
	Code    ErrorCode
	TokenID string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.TokenID != "" {
		return fmt.Sprintf("%s: %s (token=%s)", e.Code, e.Message, e.TokenID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsTokenExpired reports whether err is a TOKEN_EXPIRED delegation error.
// Uses errors.As to handle wrapped errors.
func IsTokenExpired(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == ErrCodeTokenExpired
}

// IsUsageLimitExceeded reports whether err is a USAGE_LIMIT_EXCEEDED
// delegation error.
func IsUsageLimitExceeded(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == ErrCodeUsageLimitExceeded
}

// IsBrokenChain reports whether err is a BROKEN_CHAIN delegation error.
func IsBrokenChain(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == ErrCodeBrokenChain
}

// IsCapabilityNotAllowed reports whether err is a CAPABILITY_NOT_ALLOWED
// delegation error.
func IsCapabilityNotAllowed(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == ErrCodeCapabilityNotAllowed
}

// IsInvalidDelegation reports whether err is an INVALID_DELEGATION error.
func IsInvalidDelegation(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == ErrCodeInvalidDelegation
}
