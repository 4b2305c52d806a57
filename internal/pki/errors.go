package pki

import "errors"

// Sentinel errors
var (
	// ErrNotFound is returned when an expected key or certificate file is absent.
	ErrNotFound = errors.New("not found")

	// ErrMalformed is returned when a file exists but cannot be decoded, or decodes to the wrong thing.
	ErrMalformed = errors.New("malformed")

	// ErrCryptoFailure is returned when key generation or signing fails.
	ErrCryptoFailure = errors.New("crypto failure")

	// ErrIO is returned when key or certificate material cannot be written.
	ErrIO = errors.New("io error")

	// ErrUserCanceled is returned when a confirmation prompt is declined.
	ErrUserCanceled = errors.New("canceled by user")

	// ErrInvalidValidity is returned for a validity period that is not a positive number of days.
	ErrInvalidValidity = errors.New("validity period must be a positive number of days")

	// ErrNoSubjectAltNames is returned when a site certificate has no DNS names.
	ErrNoSubjectAltNames = errors.New("at least one subject alternative name is required")

	// ErrBuilderConsumed is returned when a builder is used after SetServerAuth handed it on.
	ErrBuilderConsumed = errors.New("certificate builder already consumed")

	// ErrIssuerMismatch is returned when the requested issuer name differs from the signer's subject.
	ErrIssuerMismatch = errors.New("issuer name does not match signer subject")

	// ErrKeyMismatch is returned when a certificate's public key does not belong to its private key.
	ErrKeyMismatch = errors.New("certificate and private key do not match")
)
