package pki

import (
	"bytes"
	"crypto/rand"
	"crypto/x509"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"
)

// GeneralizedTime has a four digit year.
const maxValidityYear = 9999

// CertificateBuilder assembles an unsigned certificate around a key pair.
type CertificateBuilder struct {
	key      *KeyPair
	template *x509.Certificate
	issuer   []byte
	consumed bool
	now      func() time.Time
}

// NewCertificateBuilder starts an X.509 v3 certificate for the public half of key.
func NewCertificateBuilder(key *KeyPair) (*CertificateBuilder, error) {
	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate serial number: %v", ErrCryptoFailure, err)
	}

	return &CertificateBuilder{
		key: key,
		template: &x509.Certificate{
			// x509.CreateCertificate always emits version 3 (encoded as 2)
			SerialNumber:       serialNumber,
			PublicKey:          key.Public(),
			SignatureAlgorithm: x509.SHA256WithRSA,
		},
		now: time.Now,
	}, nil
}

// SetSubjectName sets the subject distinguished name.
func (b *CertificateBuilder) SetSubjectName(dn DistinguishedName) error {
	if b.consumed {
		return ErrBuilderConsumed
	}

	der, err := dn.Marshal()
	if err != nil {
		return err
	}
	b.template.RawSubject = der

	return nil
}

// SetIssuerName records the expected issuer. The encoded issuer always comes from the
// signer's certificate, so signing fails if the two differ.
func (b *CertificateBuilder) SetIssuerName(dn DistinguishedName) error {
	if b.consumed {
		return ErrBuilderConsumed
	}

	der, err := dn.Marshal()
	if err != nil {
		return err
	}
	b.issuer = der

	return nil
}

// SetRawIssuerName records the expected issuer from an already encoded name,
// usually the RawSubject of the CA certificate.
func (b *CertificateBuilder) SetRawIssuerName(der []byte) error {
	if b.consumed {
		return ErrBuilderConsumed
	}
	b.issuer = bytes.Clone(der)
	return nil
}

// SetValidityPeriod makes the certificate valid from now for the given number of days.
func (b *CertificateBuilder) SetValidityPeriod(days int) error {
	if b.consumed {
		return ErrBuilderConsumed
	}
	if days <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidValidity, days)
	}

	// certificates carry second precision
	notBefore := b.now().UTC().Truncate(time.Second)
	notAfter := notBefore.AddDate(0, 0, days)
	if notAfter.Year() > maxValidityYear {
		return fmt.Errorf("%w: %d days ends after year %d", ErrInvalidValidity, days, maxValidityYear)
	}

	b.template.NotBefore = notBefore
	b.template.NotAfter = notAfter

	return nil
}

// SetCertificateAuthority adds critical basic constraints marking the certificate as a CA
// with no path length constraint.
func (b *CertificateBuilder) SetCertificateAuthority() error {
	if b.consumed {
		return ErrBuilderConsumed
	}

	b.template.BasicConstraintsValid = true
	b.template.IsCA = true
	b.template.MaxPathLen = -1
	b.template.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature

	return nil
}

// SetServerAuth adds the TLS server authentication extended key usage and hands the
// certificate over to a SiteCertificateBuilder. b cannot be used afterwards.
func (b *CertificateBuilder) SetServerAuth() (*SiteCertificateBuilder, error) {
	if b.consumed {
		return nil, ErrBuilderConsumed
	}

	next := &CertificateBuilder{
		key:      b.key,
		template: b.template,
		issuer:   b.issuer,
		now:      b.now,
	}
	next.template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
	next.template.KeyUsage = x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment

	b.consumed = true
	b.template = nil

	return &SiteCertificateBuilder{inner: next}, nil
}

// SignSelf signs the certificate with its own key. Subject and issuer are the same name.
func (b *CertificateBuilder) SignSelf() (*Certificate, error) {
	if b.consumed {
		return nil, ErrBuilderConsumed
	}
	return b.Build(&selfSigner{key: b.key, template: b.template})
}

// Build has signer sign the certificate and pairs the result with the builder's key.
func (b *CertificateBuilder) Build(signer CASigner) (*Certificate, error) {
	if b.consumed {
		return nil, ErrBuilderConsumed
	}
	if b.template.NotAfter.IsZero() {
		return nil, fmt.Errorf("%w: validity period not set", ErrInvalidValidity)
	}

	issuerCert, err := signer.GetCACertificate()
	if err != nil {
		return nil, fmt.Errorf("failed to get signer certificate: %w", err)
	}
	if b.issuer != nil && !bytes.Equal(b.issuer, issuerCert.RawSubject) {
		return nil, ErrIssuerMismatch
	}

	der, err := signer.SignCertificate(b.template)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sign certificate: %v", ErrCryptoFailure, err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse signed certificate: %v", ErrCryptoFailure, err)
	}

	log.Debug().
		Str("subject", cert.Subject.String()).
		Str("issuer", cert.Issuer.String()).
		Str("serial_number", cert.SerialNumber.Text(16)).
		Msg("certificate signed")

	b.consumed = true

	return &Certificate{cert: cert, key: b.key}, nil
}

// SiteCertificateBuilder is a server authentication certificate under construction.
type SiteCertificateBuilder struct {
	inner *CertificateBuilder
}

// SetSubjectAltNames adds a subject alternative name extension with one DNS entry per name, in order.
func (s *SiteCertificateBuilder) SetSubjectAltNames(names []string) error {
	if s.inner.consumed {
		return ErrBuilderConsumed
	}
	if len(names) == 0 {
		return ErrNoSubjectAltNames
	}

	s.inner.template.DNSNames = append([]string(nil), names...)

	return nil
}

// SetSubjectName sets the subject distinguished name.
func (s *SiteCertificateBuilder) SetSubjectName(dn DistinguishedName) error {
	return s.inner.SetSubjectName(dn)
}

// SetIssuerName records the expected issuer name.
func (s *SiteCertificateBuilder) SetIssuerName(dn DistinguishedName) error {
	return s.inner.SetIssuerName(dn)
}

// SetRawIssuerName records the expected issuer from its DER encoding.
func (s *SiteCertificateBuilder) SetRawIssuerName(der []byte) error {
	return s.inner.SetRawIssuerName(der)
}

// SetValidityPeriod makes the certificate valid from now for the given number of days.
func (s *SiteCertificateBuilder) SetValidityPeriod(days int) error {
	return s.inner.SetValidityPeriod(days)
}

// Build has signer sign the site certificate.
func (s *SiteCertificateBuilder) Build(signer CASigner) (*Certificate, error) {
	if !s.inner.consumed && len(s.inner.template.DNSNames) == 0 {
		return nil, ErrNoSubjectAltNames
	}
	return s.inner.Build(signer)
}

// selfSigner signs a template with the template itself as parent.
type selfSigner struct {
	key      *KeyPair
	template *x509.Certificate
}

func (s *selfSigner) SignCertificate(template *x509.Certificate) ([]byte, error) {
	return x509.CreateCertificate(rand.Reader, template, template, template.PublicKey, s.key.Signer())
}

func (s *selfSigner) GetCACertificate() (*x509.Certificate, error) {
	return s.template, nil
}
