package pki

import (
	"bytes"
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCAName = DistinguishedName{
	CommonName:         "Acme",
	Organization:       "Acme",
	OrganizationalUnit: "Acme",
	Email:              "ca@acme.test",
}

func newTestCA(t *testing.T) *Certificate {
	t.Helper()

	b, err := NewCertificateBuilder(testKey(t, 0))
	require.NoError(t, err)
	require.NoError(t, b.SetSubjectName(testCAName))
	require.NoError(t, b.SetIssuerName(testCAName))
	require.NoError(t, b.SetCertificateAuthority())
	require.NoError(t, b.SetValidityPeriod(36500))

	ca, err := b.SignSelf()
	require.NoError(t, err)
	return ca
}

func newTestSite(t *testing.T, ca *Certificate, names []string) *Certificate {
	t.Helper()

	b, err := NewCertificateBuilder(testKey(t, 1))
	require.NoError(t, err)

	site, err := b.SetServerAuth()
	require.NoError(t, err)
	require.NoError(t, site.SetSubjectName(DistinguishedName{
		CommonName:         "www",
		Organization:       "Acme",
		OrganizationalUnit: "www",
		Email:              "ca@acme.test",
	}))
	require.NoError(t, site.SetRawIssuerName(ca.RawSubject()))
	require.NoError(t, site.SetValidityPeriod(730))
	require.NoError(t, site.SetSubjectAltNames(names))

	cert, err := ca.Sign(site)
	require.NoError(t, err)
	return cert
}

func TestCertificateBuilder_SetValidityPeriod(t *testing.T) {
	t.Run("not after is days after not before", func(t *testing.T) {
		for _, days := range []int{1, 30, 730, 36500} {
			b, err := NewCertificateBuilder(testKey(t, 0))
			require.NoError(t, err)

			started := time.Now()
			require.NoError(t, b.SetValidityPeriod(days))
			require.NoError(t, b.SetSubjectName(testCAName))

			cert, err := b.SignSelf()
			require.NoError(t, err)

			c := cert.X509()
			assert.Equal(t, time.Duration(days)*24*time.Hour, c.NotAfter.Sub(c.NotBefore))
			assert.WithinDuration(t, started, c.NotBefore, 2*time.Second)
		}
	})

	t.Run("fixed clock", func(t *testing.T) {
		b, err := NewCertificateBuilder(testKey(t, 0))
		require.NoError(t, err)
		now := time.Date(2026, 1, 2, 3, 4, 5, 600, time.UTC)
		b.now = func() time.Time { return now }

		require.NoError(t, b.SetValidityPeriod(10))
		assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), b.template.NotBefore)
		assert.Equal(t, time.Date(2026, 1, 12, 3, 4, 5, 0, time.UTC), b.template.NotAfter)
	})

	t.Run("long periods count whole days", func(t *testing.T) {
		b, err := NewCertificateBuilder(testKey(t, 0))
		require.NoError(t, err)
		now := time.Date(2026, 10, 17, 17, 35, 11, 0, time.UTC)
		b.now = func() time.Time { return now }

		// beyond what a time.Duration can hold
		const days = 200000
		require.NoError(t, b.SetValidityPeriod(days))
		require.NoError(t, b.SetSubjectName(testCAName))

		cert, err := b.SignSelf()
		require.NoError(t, err)

		c := cert.X509()
		assert.True(t, now.Equal(c.NotBefore))
		assert.True(t, c.NotAfter.After(c.NotBefore))
		assert.Equal(t, int64(days)*24*60*60, c.NotAfter.Unix()-c.NotBefore.Unix())
		assert.True(t, now.AddDate(0, 0, days).Equal(c.NotAfter))
	})

	t.Run("periods past year 9999 rejected", func(t *testing.T) {
		b, err := NewCertificateBuilder(testKey(t, 0))
		require.NoError(t, err)
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		b.now = func() time.Time { return start }

		require.ErrorIs(t, b.SetValidityPeriod(3000000), ErrInvalidValidity)

		// the last representable day still works
		last := int((time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC).Unix() - start.Unix()) / (24 * 60 * 60))
		require.NoError(t, b.SetValidityPeriod(last))
		require.ErrorIs(t, b.SetValidityPeriod(last+1), ErrInvalidValidity)
	})

	t.Run("non positive days rejected", func(t *testing.T) {
		b, err := NewCertificateBuilder(testKey(t, 0))
		require.NoError(t, err)

		require.ErrorIs(t, b.SetValidityPeriod(0), ErrInvalidValidity)
		require.ErrorIs(t, b.SetValidityPeriod(-5), ErrInvalidValidity)
	})

	t.Run("build without validity fails", func(t *testing.T) {
		b, err := NewCertificateBuilder(testKey(t, 0))
		require.NoError(t, err)

		_, err = b.SignSelf()
		require.ErrorIs(t, err, ErrInvalidValidity)
	})
}

func TestCertificateBuilder_SignSelf(t *testing.T) {
	ca := newTestCA(t)
	c := ca.X509()

	t.Run("version 3 with sha256", func(t *testing.T) {
		assert.Equal(t, 3, c.Version)
		assert.Equal(t, x509.SHA256WithRSA, c.SignatureAlgorithm)
	})

	t.Run("self signed", func(t *testing.T) {
		assert.True(t, bytes.Equal(c.RawSubject, c.RawIssuer))
		require.NoError(t, c.CheckSignatureFrom(c))
	})

	t.Run("marked as CA", func(t *testing.T) {
		bc, err := ExtractBasicConstraints(c)
		require.NoError(t, err)
		assert.True(t, bc.IsCA)
		assert.True(t, bc.Critical)
		assert.Equal(t, -1, bc.MaxPathLen)
		assert.True(t, c.IsCA)
		assert.False(t, HasServerAuth(c))
	})

	t.Run("paired with its key", func(t *testing.T) {
		assert.True(t, ca.Key().Public().Equal(c.PublicKey))
	})

	t.Run("issuer must match subject", func(t *testing.T) {
		b, err := NewCertificateBuilder(testKey(t, 0))
		require.NoError(t, err)
		require.NoError(t, b.SetSubjectName(testCAName))
		require.NoError(t, b.SetIssuerName(DistinguishedName{CommonName: "Someone Else"}))
		require.NoError(t, b.SetValidityPeriod(1))

		_, err = b.SignSelf()
		require.ErrorIs(t, err, ErrIssuerMismatch)
	})
}

func TestSiteCertificateBuilder(t *testing.T) {
	ca := newTestCA(t)

	t.Run("signed by CA with server auth and SANs", func(t *testing.T) {
		site := newTestSite(t, ca, []string{"www.acme.test", "acme.test"})
		c := site.X509()

		assert.True(t, bytes.Equal(ca.X509().RawSubject, c.RawIssuer))
		require.NoError(t, c.CheckSignatureFrom(ca.X509()))
		assert.Equal(t, "www", c.Subject.CommonName)

		assert.True(t, HasServerAuth(c))
		assert.Equal(t, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}, c.ExtKeyUsage)

		names, err := ExtractDNSNames(c)
		require.NoError(t, err)
		assert.Equal(t, []string{"www.acme.test", "acme.test"}, names)
		assert.Equal(t, []string{"www.acme.test", "acme.test"}, c.DNSNames)

		_, err = ExtractBasicConstraints(c)
		require.ErrorIs(t, err, ErrExtensionNotFound)
		assert.False(t, c.IsCA)

		assert.True(t, testKey(t, 1).Public().Equal(c.PublicKey))
		require.NoError(t, VerifyChain(ca.X509(), c, "acme.test"))
	})

	t.Run("SAN order preserved", func(t *testing.T) {
		names := []string{"c.acme.test", "a.acme.test", "b.acme.test"}
		site := newTestSite(t, ca, names)

		got, err := ExtractDNSNames(site.X509())
		require.NoError(t, err)
		assert.Equal(t, names, got)
	})

	t.Run("empty SAN list rejected", func(t *testing.T) {
		b, err := NewCertificateBuilder(testKey(t, 1))
		require.NoError(t, err)
		site, err := b.SetServerAuth()
		require.NoError(t, err)

		require.ErrorIs(t, site.SetSubjectAltNames(nil), ErrNoSubjectAltNames)
		require.ErrorIs(t, site.SetSubjectAltNames([]string{}), ErrNoSubjectAltNames)

		require.NoError(t, site.SetValidityPeriod(1))
		_, err = ca.Sign(site)
		require.ErrorIs(t, err, ErrNoSubjectAltNames)
	})

	t.Run("issuer mismatch rejected", func(t *testing.T) {
		b, err := NewCertificateBuilder(testKey(t, 1))
		require.NoError(t, err)
		site, err := b.SetServerAuth()
		require.NoError(t, err)
		require.NoError(t, site.SetIssuerName(DistinguishedName{CommonName: "Other CA"}))
		require.NoError(t, site.SetValidityPeriod(1))
		require.NoError(t, site.SetSubjectAltNames([]string{"www.acme.test"}))

		_, err = ca.Sign(site)
		require.ErrorIs(t, err, ErrIssuerMismatch)
	})

	t.Run("general builder consumed by server auth", func(t *testing.T) {
		b, err := NewCertificateBuilder(testKey(t, 1))
		require.NoError(t, err)

		_, err = b.SetServerAuth()
		require.NoError(t, err)

		require.ErrorIs(t, b.SetValidityPeriod(1), ErrBuilderConsumed)
		require.ErrorIs(t, b.SetCertificateAuthority(), ErrBuilderConsumed)
		_, err = b.SetServerAuth()
		require.ErrorIs(t, err, ErrBuilderConsumed)
		_, err = b.SignSelf()
		require.ErrorIs(t, err, ErrBuilderConsumed)
	})

	t.Run("site builder signs only once", func(t *testing.T) {
		b, err := NewCertificateBuilder(testKey(t, 1))
		require.NoError(t, err)
		site, err := b.SetServerAuth()
		require.NoError(t, err)
		require.NoError(t, site.SetValidityPeriod(1))
		require.NoError(t, site.SetSubjectAltNames([]string{"www.acme.test"}))

		_, err = ca.Sign(site)
		require.NoError(t, err)

		_, err = ca.Sign(site)
		require.ErrorIs(t, err, ErrBuilderConsumed)
	})
}
