package pki

import (
	"crypto/x509"
)

// CASigner signs certificate templates to create certificates.
// Certificate implements it for both self-signed roots and site issuance.
type CASigner interface {
	// SignCertificate signs a certificate template and returns the DER-encoded certificate bytes.
	// The template must be fully populated with all required fields (subject, validity, extensions, etc.)
	// and carry the public key being certified.
	SignCertificate(template *x509.Certificate) ([]byte, error)

	// GetCACertificate returns the CA certificate (public key only).
	// Its subject becomes the issuer of every certificate it signs.
	GetCACertificate() (*x509.Certificate, error)
}

// Unsigned is a certificate under construction which a CASigner can finalize.
type Unsigned interface {
	Build(signer CASigner) (*Certificate, error)
}
