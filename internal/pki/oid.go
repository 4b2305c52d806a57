package pki

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
)

// Standard certificate extension OIDs (RFC 5280)
var (
	// OIDExtensionSubjectAltName identifies the subject alternative name extension
	OIDExtensionSubjectAltName = asn1.ObjectIdentifier{2, 5, 29, 17}

	// OIDExtensionBasicConstraints identifies the basic constraints extension
	OIDExtensionBasicConstraints = asn1.ObjectIdentifier{2, 5, 29, 19}

	// OIDExtensionExtKeyUsage identifies the extended key usage extension
	OIDExtensionExtKeyUsage = asn1.ObjectIdentifier{2, 5, 29, 37}

	// OIDExtKeyUsageServerAuth is the TLS web server authentication key purpose
	OIDExtKeyUsageServerAuth = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 1}
)

// ErrExtensionNotFound is returned when a required extension is missing
var ErrExtensionNotFound = errors.New("extension not found")

// dNSName is [2] IA5String inside GeneralNames
const sanTagDNSName = 2

// BasicConstraints is the decoded basic constraints extension.
type BasicConstraints struct {
	IsCA       bool
	MaxPathLen int
	Critical   bool
}

// FindExtension returns the extension with the given OID
func FindExtension(cert *x509.Certificate, oid asn1.ObjectIdentifier) (pkix.Extension, error) {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oid) {
			return ext, nil
		}
	}
	return pkix.Extension{}, ErrExtensionNotFound
}

// ExtractBasicConstraints decodes the basic constraints extension
func ExtractBasicConstraints(cert *x509.Certificate) (*BasicConstraints, error) {
	ext, err := FindExtension(cert, OIDExtensionBasicConstraints)
	if err != nil {
		return nil, err
	}

	var value struct {
		IsCA       bool `asn1:"optional"`
		MaxPathLen int  `asn1:"optional,default:-1"`
	}
	if _, err := asn1.Unmarshal(ext.Value, &value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal basic constraints: %w", err)
	}

	return &BasicConstraints{
		IsCA:       value.IsCA,
		MaxPathLen: value.MaxPathLen,
		Critical:   ext.Critical,
	}, nil
}

// CheckCertificateAuthority requires a critical basic constraints extension with the CA flag set.
func CheckCertificateAuthority(cert *x509.Certificate) error {
	bc, err := ExtractBasicConstraints(cert)
	if err != nil {
		return fmt.Errorf("%w: %q has no basic constraints: %w", ErrMalformed, cert.Subject.CommonName, err)
	}
	if !bc.IsCA || !bc.Critical {
		return fmt.Errorf("%w: %q is not a certificate authority", ErrMalformed, cert.Subject.CommonName)
	}
	return nil
}

// ExtractDNSNames decodes the DNS entries of the subject alternative name extension in encoded order
func ExtractDNSNames(cert *x509.Certificate) ([]string, error) {
	ext, err := FindExtension(cert, OIDExtensionSubjectAltName)
	if err != nil {
		return nil, err
	}

	var generalNames []asn1.RawValue
	if _, err := asn1.Unmarshal(ext.Value, &generalNames); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subject alternative names: %w", err)
	}

	names := []string{}
	for _, gn := range generalNames {
		if gn.Class == asn1.ClassContextSpecific && gn.Tag == sanTagDNSName {
			names = append(names, string(gn.Bytes))
		}
	}

	return names, nil
}

// HasServerAuth reports whether the extended key usage extension includes server authentication
func HasServerAuth(cert *x509.Certificate) bool {
	ext, err := FindExtension(cert, OIDExtensionExtKeyUsage)
	if err != nil {
		return false
	}

	var usages []asn1.ObjectIdentifier
	if _, err := asn1.Unmarshal(ext.Value, &usages); err != nil {
		return false
	}

	for _, usage := range usages {
		if usage.Equal(OIDExtKeyUsageServerAuth) {
			return true
		}
	}
	return false
}
