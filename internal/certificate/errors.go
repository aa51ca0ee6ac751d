package certificate

import (
	"errors"
	"fmt"

	"github.com/seanchatmangpt/sigil/internal/capability"
)

// ErrorCode categorizes certificate pipeline errors.
type ErrorCode string

const (
	// ErrCodePolicyDenied indicates the policy engine did not allow the
	// invocation.
	ErrCodePolicyDenied ErrorCode = "POLICY_DENIED"

	// ErrCodeCapabilityNotAvailable indicates the capability is not in
	// the availability set.
	ErrCodeCapabilityNotAvailable ErrorCode = "CAPABILITY_NOT_AVAILABLE"

	// ErrCodeExpired indicates the certificate's expiry passed before
	// final verification.
	ErrCodeExpired ErrorCode = "EXPIRED"

	// ErrCodeSerializationFailed indicates Export could not encode the
	// certificate.
	ErrCodeSerializationFailed ErrorCode = "SERIALIZATION_FAILED"

	// ErrCodeDeserializationFailed indicates Import could not decode or
	// re-validate a certificate.
	ErrCodeDeserializationFailed ErrorCode = "DESERIALIZATION_FAILED"
)

// Error is a structured pipeline error. Every pipeline failure is
// terminal for the invocation; nothing in the pipeline retries.
type Error struct {
	Code       ErrorCode
	Capability capability.ID
	Reason     string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Capability != "" {
		return fmt.Sprintf("%s: %s (capability=%s)", e.Code, e.Reason, e.Capability)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// IsPolicyDenied reports whether err is a POLICY_DENIED pipeline error.
// Uses errors.As to handle wrapped errors.
func IsPolicyDenied(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == ErrCodePolicyDenied
}

// IsCapabilityNotAvailable reports whether err is a
// CAPABILITY_NOT_AVAILABLE pipeline error.
func IsCapabilityNotAvailable(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == ErrCodeCapabilityNotAvailable
}

// IsExpired reports whether err is an EXPIRED pipeline error.
func IsExpired(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == ErrCodeExpired
}

// IsDeserializationFailed reports whether err is a
// DESERIALIZATION_FAILED pipeline error.
func IsDeserializationFailed(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == ErrCodeDeserializationFailed
}
