package store

import (
	"context"
	"crypto/x509"
	"errors"
	"time"

	"github.com/wolfeidau/certgen/internal/pki"
)

// CertMetadata represents metadata about an issued or re-used certificate
type CertMetadata struct {
	Name         string    `json:"name"`
	SerialNumber string    `json:"serial_number"`
	Fingerprint  string    `json:"fingerprint"`
	SubjectDN    string    `json:"subject_dn"`
	IssuerDN     string    `json:"issuer_dn"`
	IsCA         bool      `json:"is_ca"`
	DNSNames     []string  `json:"dns_names,omitempty"`
	NotBefore    time.Time `json:"not_before"`
	NotAfter     time.Time `json:"not_after"`
	KeyEncrypted bool      `json:"key_encrypted"`
	RunID        string    `json:"run_id,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Expired reports whether the certificate is past its not-after time at now.
func (m *CertMetadata) Expired(now time.Time) bool {
	return now.After(m.NotAfter)
}

// DaysRemaining returns the whole days left until not-after, negative once expired.
func (m *CertMetadata) DaysRemaining(now time.Time) int {
	return int(m.NotAfter.Sub(now).Hours() / 24)
}

// CertificateStore keeps an inventory of certificates by logical name
type CertificateStore interface {
	// Get retrieves certificate metadata by logical name
	Get(ctx context.Context, name string) (*CertMetadata, error)

	// GetByFingerprint retrieves certificate by base58 SHA-256 fingerprint
	GetByFingerprint(ctx context.Context, fingerprint string) (*CertMetadata, error)

	// Register stores certificate metadata, replacing any earlier record with the same name
	Register(ctx context.Context, cert *CertMetadata) error

	// List returns registered certificates sorted by name
	List(ctx context.Context, opts ListCertificatesOptions) ([]*CertMetadata, error)
}

// ListCertificatesOptions specifies filters for listing certificates
type ListCertificatesOptions struct {
	IncludeExpired bool // Include expired certs (default: false)
	Limit          int  // Max results (0 = all)
}

// Errors
var (
	ErrCertNotFound = errors.New("certificate not found")
	ErrInvalidCert  = errors.New("certificate metadata requires a name")
)

// NewCertMetadataFromX509 creates CertMetadata from an X.509 certificate
func NewCertMetadataFromX509(name string, cert *x509.Certificate) *CertMetadata {
	return &CertMetadata{
		Name:         name,
		SerialNumber: cert.SerialNumber.Text(16),
		Fingerprint:  pki.Fingerprint(cert),
		SubjectDN:    cert.Subject.String(),
		IssuerDN:     cert.Issuer.String(),
		IsCA:         cert.BasicConstraintsValid && cert.IsCA,
		DNSNames:     append([]string(nil), cert.DNSNames...),
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
		RecordedAt:   time.Now().UTC(),
	}
}

func copyCert(cert *CertMetadata) *CertMetadata {
	c := *cert
	c.DNSNames = append([]string(nil), cert.DNSNames...)
	return &c
}

// filterCerts applies opts to certs, which must already be sorted by name
func filterCerts(certs []*CertMetadata, opts ListCertificatesOptions, now time.Time) []*CertMetadata {
	result := []*CertMetadata{}
	for _, cert := range certs {
		// Skip expired certs if not requested
		if cert.Expired(now) && !opts.IncludeExpired {
			continue
		}

		result = append(result, copyCert(cert))

		// Apply limit
		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
	}
	return result
}
