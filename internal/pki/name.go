package pki

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
)

var (
	oidCommonName         = asn1.ObjectIdentifier{2, 5, 4, 3}
	oidCountry            = asn1.ObjectIdentifier{2, 5, 4, 6}
	oidProvince           = asn1.ObjectIdentifier{2, 5, 4, 8}
	oidOrganization       = asn1.ObjectIdentifier{2, 5, 4, 10}
	oidOrganizationalUnit = asn1.ObjectIdentifier{2, 5, 4, 11}

	// OIDEmailAddress is the PKCS#9 emailAddress attribute.
	OIDEmailAddress = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}
)

// DistinguishedName is the subject or issuer identity of a certificate.
// Empty fields are left out of the encoding.
type DistinguishedName struct {
	CommonName         string
	Organization       string
	OrganizationalUnit string
	Email              string
	Country            string
	Province           string
}

// RDNSequence returns the attributes in the order CN, O, OU, emailAddress, C, ST.
func (d DistinguishedName) RDNSequence() pkix.RDNSequence {
	var seq pkix.RDNSequence

	add := func(oid asn1.ObjectIdentifier, value any) {
		seq = append(seq, pkix.RelativeDistinguishedNameSET{{Type: oid, Value: value}})
	}

	if d.CommonName != "" {
		add(oidCommonName, d.CommonName)
	}
	if d.Organization != "" {
		add(oidOrganization, d.Organization)
	}
	if d.OrganizationalUnit != "" {
		add(oidOrganizationalUnit, d.OrganizationalUnit)
	}
	if d.Email != "" {
		// emailAddress is an IA5String
		add(OIDEmailAddress, asn1.RawValue{Tag: asn1.TagIA5String, Bytes: []byte(d.Email)})
	}
	if d.Country != "" {
		add(oidCountry, d.Country)
	}
	if d.Province != "" {
		add(oidProvince, d.Province)
	}

	return seq
}

// Marshal returns the DER encoding of the name.
func (d DistinguishedName) Marshal() ([]byte, error) {
	der, err := asn1.Marshal(d.RDNSequence())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal distinguished name: %w", err)
	}
	return der, nil
}

// EmailFromName returns the emailAddress attribute of a parsed name, if present.
func EmailFromName(name pkix.Name) string {
	for _, atv := range name.Names {
		if atv.Type.Equal(OIDEmailAddress) {
			if s, ok := atv.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}
