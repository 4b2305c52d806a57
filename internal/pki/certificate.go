package pki

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/mr-tron/base58"
)

const pemTypeCertificate = "CERTIFICATE"

var _ CASigner = (*Certificate)(nil)

// Certificate is a signed certificate bound to the private key of its subject.
// Key and certificate are always loaded and saved together.
type Certificate struct {
	cert *x509.Certificate
	key  *KeyPair
}

// X509 returns the parsed certificate.
func (c *Certificate) X509() *x509.Certificate {
	return c.cert
}

// Key returns the private key paired with the certificate.
func (c *Certificate) Key() *KeyPair {
	return c.key
}

// RawSubject returns the DER-encoded subject, used as the issuer of certificates this one signs.
func (c *Certificate) RawSubject() []byte {
	return c.cert.RawSubject
}

// Sign signs u with this certificate's key using SHA-256. The result's issuer is this certificate's subject.
func (c *Certificate) Sign(u Unsigned) (*Certificate, error) {
	return u.Build(c)
}

// SignCertificate signs a template with this certificate as parent and returns the DER bytes.
func (c *Certificate) SignCertificate(template *x509.Certificate) ([]byte, error) {
	return x509.CreateCertificate(rand.Reader, template, c.cert, template.PublicKey, c.key.Signer())
}

// GetCACertificate returns the certificate used as issuer.
func (c *Certificate) GetCACertificate() (*x509.Certificate, error) {
	return c.cert, nil
}

// EncodePEM returns the certificate in PEM form.
func (c *Certificate) EncodePEM() []byte {
	return EncodeCertificatePEM(c.cert)
}

// Fingerprint returns the base58 encoded SHA-256 of the DER certificate.
func (c *Certificate) Fingerprint() string {
	return Fingerprint(c.cert)
}

// Fingerprint returns the base58 encoded SHA-256 of the DER certificate.
func Fingerprint(cert *x509.Certificate) string {
	hash := sha256.Sum256(cert.Raw)
	return base58.Encode(hash[:])
}

// EncodeCertificatePEM encodes a certificate as a PEM CERTIFICATE block.
func EncodeCertificatePEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  pemTypeCertificate,
		Bytes: cert.Raw,
	})
}

// DecodeCertificatePEM parses the first PEM CERTIFICATE block in data.
func DecodeCertificatePEM(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode certificate PEM", ErrMalformed)
	}
	if block.Type != pemTypeCertificate {
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrMalformed, block.Type)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse certificate: %v", ErrMalformed, err)
	}

	return cert, nil
}

// VerifyChain checks that leaf chains to ca for TLS server authentication.
// When dnsName is set the leaf must also be valid for that name.
func VerifyChain(ca, leaf *x509.Certificate, dnsName string) error {
	roots := x509.NewCertPool()
	roots.AddCert(ca)

	_, err := leaf.Verify(x509.VerifyOptions{
		DNSName:   dnsName,
		Roots:     roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	})
	if err != nil {
		return fmt.Errorf("certificate %q does not verify against %q: %w", leaf.Subject.CommonName, ca.Subject.CommonName, err)
	}

	return nil
}
