package provision

import (
	"github.com/wolfeidau/certgen/internal/config"
	"github.com/wolfeidau/certgen/internal/pki"
)

// CASubjectName is the subject, and issuer, of the root certificate authority.
func CASubjectName(net config.Network) pki.DistinguishedName {
	return pki.DistinguishedName{
		CommonName:         net.Name,
		Organization:       net.Name,
		OrganizationalUnit: net.Name,
		Email:              net.Email,
		Country:            net.Country,
		Province:           net.Province,
	}
}

// SiteSubjectName names a site certificate. The logical site name is the common name; the
// display name, when given, is the organizational unit.
func SiteSubjectName(net config.Network, name string, site *config.Site) pki.DistinguishedName {
	dn := CASubjectName(net)
	dn.CommonName = name
	dn.OrganizationalUnit = name
	if site != nil && site.Name != "" {
		dn.OrganizationalUnit = site.Name
	}
	return dn
}
