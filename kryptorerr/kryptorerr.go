// Package kryptorerr defines the error kinds the engine raises: validation
// failures return InvalidFormat, AEAD/KDF failures return Cryptographic,
// filesystem failures return Io, and unsupported on-disk versions or
// out-of-range fields return PolicyViolation. Wrong password and tampering
// both surface as the same Cryptographic message — nothing here ever
// distinguishes the two.
package kryptorerr

import "fmt"

// Kind identifies the category of a Kryptor error.
type Kind string

const (
	InvalidFormat   Kind = "invalid_format"
	Cryptographic   Kind = "cryptographic"
	Io              Kind = "io"
	PolicyViolation Kind = "policy_violation"
)

// Error wraps a Kind with a message and optional cause, satisfying
// errors.Is(err, someKind) via Kind's own equality and the Unwrap chain.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, kryptorerr.Cryptographic) work by comparing kinds
// when the target is itself a bare *Error with no cause, which is how kind
// sentinels are checked throughout this module (e.g. kryptorerr.New(kryptorerr.Cryptographic, "", nil)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel returns a bare *Error of the given kind, for use with errors.Is.
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}
