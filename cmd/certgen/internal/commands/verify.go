package commands

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/certgen/internal/config"
	"github.com/wolfeidau/certgen/internal/pki"
)

// VerifyCmd checks every configured site certificate against the root CA.
type VerifyCmd struct {
	Config string `help:"Configuration file (TOML or YAML)" default:"certgen.toml" env:"CERTGEN_CONFIG"`
	Dir    string `help:"Directory holding certificate files" default:"." env:"CERTGEN_DIR"`
}

func (v *VerifyCmd) Run(ctx context.Context, globals *Globals) error {
	ctx = setupLogging(ctx, globals)
	log := zerolog.Ctx(ctx)

	cfg, err := config.Load(v.Config)
	if err != nil {
		return err
	}

	ca, err := readCertificate(v.Dir, cfg.Network.RootCAName)
	if err != nil {
		return err
	}
	if err := pki.CheckCertificateAuthority(ca); err != nil {
		return fmt.Errorf("certificate authority %s: %w", cfg.Network.RootCAName, err)
	}

	var errs []error
	for _, name := range cfg.SiteNames() {
		if err := verifySite(v.Dir, ca, name, cfg.Sites[name]); err != nil {
			log.Error().Err(err).Str("name", name).Msg("site certificate failed verification")
			fmt.Fprintf(output, "FAIL %s: %v\n", name, err)
			errs = append(errs, fmt.Errorf("site %s: %w", name, err))
			continue
		}
		fmt.Fprintf(output, "OK   %s\n", name)
	}

	return errors.Join(errs...)
}

func verifySite(dir string, ca *x509.Certificate, name string, site *config.Site) error {
	cert, err := readCertificate(dir, name)
	if err != nil {
		return err
	}

	if !pki.HasServerAuth(cert) {
		return errors.New("missing server authentication usage")
	}

	for _, altName := range site.AltNames {
		if err := pki.VerifyChain(ca, cert, altName); err != nil {
			return err
		}
	}

	return nil
}

func readCertificate(dir, name string) (*x509.Certificate, error) {
	_, path := pki.Paths(dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file: %w", err)
	}

	cert, err := pki.DecodeCertificatePEM(data)
	if err != nil {
		return nil, fmt.Errorf("certificate file %s: %w", path, err)
	}

	return cert, nil
}
