package pki

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistinguishedName_RDNSequence(t *testing.T) {
	t.Run("attribute order", func(t *testing.T) {
		dn := DistinguishedName{
			CommonName:         "www",
			Organization:       "Acme",
			OrganizationalUnit: "Web",
			Email:              "ca@acme.test",
			Country:            "AU",
			Province:           "Victoria",
		}

		var oids []asn1.ObjectIdentifier
		for _, rdn := range dn.RDNSequence() {
			require.Len(t, rdn, 1)
			oids = append(oids, rdn[0].Type)
		}

		assert.Equal(t, []asn1.ObjectIdentifier{
			oidCommonName, oidOrganization, oidOrganizationalUnit, OIDEmailAddress, oidCountry, oidProvince,
		}, oids)
	})

	t.Run("optional fields omitted", func(t *testing.T) {
		dn := DistinguishedName{CommonName: "Acme", Organization: "Acme", OrganizationalUnit: "Acme", Email: "ca@acme.test"}
		assert.Len(t, dn.RDNSequence(), 4)
	})

	t.Run("round trips through DER", func(t *testing.T) {
		dn := DistinguishedName{
			CommonName:         "www",
			Organization:       "Acme",
			OrganizationalUnit: "Web",
			Email:              "ca@acme.test",
			Country:            "AU",
			Province:           "Victoria",
		}

		der, err := dn.Marshal()
		require.NoError(t, err)

		var seq pkix.RDNSequence
		rest, err := asn1.Unmarshal(der, &seq)
		require.NoError(t, err)
		require.Empty(t, rest)

		var name pkix.Name
		name.FillFromRDNSequence(&seq)
		assert.Equal(t, "www", name.CommonName)
		assert.Equal(t, []string{"Acme"}, name.Organization)
		assert.Equal(t, []string{"Web"}, name.OrganizationalUnit)
		assert.Equal(t, []string{"AU"}, name.Country)
		assert.Equal(t, []string{"Victoria"}, name.Province)
		assert.Equal(t, "ca@acme.test", EmailFromName(name))
	})
}
