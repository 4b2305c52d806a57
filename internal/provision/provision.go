// Package provision obtains or creates the root certificate authority and issues every configured site certificate.
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/certgen/internal/config"
	"github.com/wolfeidau/certgen/internal/pki"
	"github.com/wolfeidau/certgen/internal/prompt"
	"github.com/wolfeidau/certgen/internal/store"
)

// State is the position of a run in the provisioning sequence.
type State string

const (
	StateResolvingCA   State = "resolving_ca"
	StateResolvingSite State = "resolving_site"
	StateDone          State = "done"
	StateAborted       State = "aborted"
)

// Status is the outcome of one unit of work, the CA or a single site.
type Status string

const (
	StatusLoaded    Status = "loaded"
	StatusGenerated Status = "generated"
	StatusIssued    Status = "issued"
	StatusCanceled  Status = "canceled"
	StatusFailed    Status = "failed"
)

// UnitResult describes what happened to the CA or a site.
type UnitResult struct {
	Name        string
	Status      Status
	Fingerprint string
	NotAfter    time.Time
	Err         error
}

// Report summarizes a run.
type Report struct {
	RunID string
	State State
	CA    UnitResult
	Sites []UnitResult
}

// Failed returns the sites which could not be issued.
func (r *Report) Failed() []UnitResult {
	var failed []UnitResult
	for _, site := range r.Sites {
		if site.Status == StatusFailed {
			failed = append(failed, site)
		}
	}
	return failed
}

// Provisioner runs the CA and site provisioning for one configuration.
type Provisioner struct {
	cfg       *config.Config
	dir       string
	prompter  prompt.Prompter
	keys      *pki.KeyManager
	inventory store.CertificateStore
}

// New creates a Provisioner writing key and certificate files to dir.
func New(cfg *config.Config, dir string, p prompt.Prompter, inventory store.CertificateStore) *Provisioner {
	return &Provisioner{
		cfg:       cfg,
		dir:       dir,
		prompter:  p,
		keys:      pki.NewKeyManager(p),
		inventory: inventory,
	}
}

// Run resolves the CA, then every site in lexicographic order. Failure to resolve the CA aborts
// the run. A site that fails or is canceled does not stop the remaining sites; failed sites are
// returned joined in the error, canceled sites only appear in the report.
func (p *Provisioner) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	logger := zerolog.Ctx(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx)

	report := &Report{RunID: runID, State: StateResolvingCA}

	if err := ctx.Err(); err != nil {
		report.State = StateAborted
		return report, err
	}

	ca, caResult, err := p.resolveCA(ctx, runID)
	report.CA = caResult
	if err != nil {
		report.State = StateAborted
		logger.Error().Err(err).Str("name", p.cfg.Network.RootCAName).Msg("certificate authority unavailable, aborting")
		return report, fmt.Errorf("certificate authority %s: %w", p.cfg.Network.RootCAName, err)
	}

	var errs []error
	for _, name := range p.cfg.SiteNames() {
		if err := ctx.Err(); err != nil {
			report.State = StateAborted
			return report, err
		}
		report.State = StateResolvingSite

		result := p.resolveSite(ctx, runID, ca, name)
		report.Sites = append(report.Sites, result)

		switch result.Status {
		case StatusFailed:
			logger.Error().Err(result.Err).Str("name", name).Msg("site certificate failed")
			errs = append(errs, fmt.Errorf("site %s: %w", name, result.Err))
		case StatusCanceled:
			logger.Warn().Str("name", name).Msg("site certificate skipped")
		default:
			logger.Info().
				Str("name", name).
				Str("fingerprint", result.Fingerprint).
				Time("not_after", result.NotAfter).
				Msg("site certificate issued")
		}
	}

	report.State = StateDone

	return report, errors.Join(errs...)
}

func (p *Provisioner) resolveCA(ctx context.Context, runID string) (*pki.Certificate, UnitResult, error) {
	logger := zerolog.Ctx(ctx)
	net := p.cfg.Network
	base := filepath.Join(p.dir, net.RootCAName)
	result := UnitResult{Name: net.RootCAName}

	fail := func(err error) (*pki.Certificate, UnitResult, error) {
		result.Status = StatusFailed
		if errors.Is(err, pki.ErrUserCanceled) {
			result.Status = StatusCanceled
		}
		result.Err = err
		return nil, result, err
	}

	ca, err := pki.LoadCertificate(p.keys, base)
	switch {
	case err == nil:
		if err := pki.CheckCertificateAuthority(ca.X509()); err != nil {
			return fail(fmt.Errorf("%s%s: %w", base, pki.CertExt, err))
		}
		logger.Info().Str("name", net.RootCAName).Msg("certificate authority read OK")
		result.Status = StatusLoaded
	case errors.Is(err, pki.ErrNotFound):
		logger.Info().Str("name", net.RootCAName).Msg("certificate authority does not exist")

		ok, err := p.prompter.Confirm(fmt.Sprintf("Certificate %s does not exist. Generate a new one?", net.RootCAName))
		if err != nil {
			return fail(err)
		}
		if !ok {
			return fail(fmt.Errorf("aborted by user: %w", pki.ErrUserCanceled))
		}

		ca, err = p.generateCA(base)
		if err != nil {
			return fail(err)
		}
		logger.Info().Str("name", net.RootCAName).Msg("certificate authority generated")
		result.Status = StatusGenerated
	default:
		return fail(err)
	}

	if err := p.register(ctx, net.RootCAName, ca, runID); err != nil {
		return fail(err)
	}

	result.Fingerprint = ca.Fingerprint()
	result.NotAfter = ca.X509().NotAfter

	return ca, result, nil
}

func (p *Provisioner) generateCA(base string) (*pki.Certificate, error) {
	net := p.cfg.Network

	key, err := p.keys.LoadOrGenerate(base + pki.KeyExt)
	if err != nil {
		return nil, err
	}

	b, err := pki.NewCertificateBuilder(key)
	if err != nil {
		return nil, err
	}

	subject := CASubjectName(net)
	if err := b.SetSubjectName(subject); err != nil {
		return nil, err
	}
	if err := b.SetIssuerName(subject); err != nil {
		return nil, err
	}
	if err := b.SetCertificateAuthority(); err != nil {
		return nil, err
	}
	if err := b.SetValidityPeriod(net.RootCAValidityDays); err != nil {
		return nil, err
	}

	ca, err := b.SignSelf()
	if err != nil {
		return nil, err
	}

	if err := ca.Save(p.keys, base); err != nil {
		return nil, err
	}

	return ca, nil
}

func (p *Provisioner) resolveSite(ctx context.Context, runID string, ca *pki.Certificate, name string) UnitResult {
	result := UnitResult{Name: name}

	cert, err := p.issueSite(ca, name)
	if err == nil {
		err = p.register(ctx, name, cert, runID)
	}
	if err != nil {
		result.Status = StatusFailed
		if errors.Is(err, pki.ErrUserCanceled) {
			result.Status = StatusCanceled
		}
		result.Err = err
		return result
	}

	result.Status = StatusIssued
	result.Fingerprint = cert.Fingerprint()
	result.NotAfter = cert.X509().NotAfter

	return result
}

func (p *Provisioner) issueSite(ca *pki.Certificate, name string) (*pki.Certificate, error) {
	site := p.cfg.Sites[name]
	base := filepath.Join(p.dir, name)

	key, err := p.keys.LoadOrGenerate(base + pki.KeyExt)
	if err != nil {
		return nil, err
	}

	b, err := pki.NewCertificateBuilder(key)
	if err != nil {
		return nil, err
	}

	sb, err := b.SetServerAuth()
	if err != nil {
		return nil, err
	}

	if err := sb.SetSubjectName(SiteSubjectName(p.cfg.Network, name, site)); err != nil {
		return nil, err
	}
	if err := sb.SetRawIssuerName(ca.RawSubject()); err != nil {
		return nil, err
	}

	days := site.CrtValidityDays
	if days == 0 {
		days = config.DefaultSiteValidityDays
	}
	if err := sb.SetValidityPeriod(days); err != nil {
		return nil, err
	}
	if err := sb.SetSubjectAltNames(site.AltNames); err != nil {
		return nil, err
	}

	cert, err := ca.Sign(sb)
	if err != nil {
		return nil, err
	}

	if err := cert.Save(p.keys, base); err != nil {
		return nil, err
	}

	return cert, nil
}

// register records cert in the inventory.
func (p *Provisioner) register(ctx context.Context, name string, cert *pki.Certificate, runID string) error {
	meta := store.NewCertMetadataFromX509(name, cert.X509())
	meta.RunID = runID

	if data, err := os.ReadFile(cert.Key().Source()); err == nil {
		meta.KeyEncrypted = pki.IsEncryptedKeyPEM(data)
	}

	if err := p.inventory.Register(ctx, meta); err != nil {
		return fmt.Errorf("failed to register %s in inventory: %w", name, err)
	}

	return nil
}
