package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/certgen/internal/config"
	"github.com/wolfeidau/certgen/internal/prompt"
	"github.com/wolfeidau/certgen/internal/provision"
	"github.com/wolfeidau/certgen/internal/store"
)

// GenerateCmd provisions the root CA and the site certificates.
type GenerateCmd struct {
	Config string `help:"Configuration file (TOML or YAML)" default:"certgen.toml" env:"CERTGEN_CONFIG"`
	Dir    string `help:"Directory holding key, certificate and inventory files" default:"." env:"CERTGEN_DIR"`
	Yes    bool   `help:"Answer yes to every question and leave generated keys unencrypted" default:"false"`

	prompter prompt.Prompter `kong:"-"`
}

func (g *GenerateCmd) Run(ctx context.Context, globals *Globals) error {
	ctx = setupLogging(ctx, globals)

	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(g.Dir, 0700); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", g.Dir, err)
	}

	p := g.prompter
	switch {
	case p != nil:
	case g.Yes:
		p = prompt.AssumeYes{}
	default:
		p = prompt.NewTerminal()
	}

	inventory := store.NewFileCertificateStore(g.Dir)

	zerolog.Ctx(ctx).Info().
		Str("config", g.Config).
		Str("dir", g.Dir).
		Str("inventory", inventory.Path()).
		Int("sites", len(cfg.Sites)).
		Msg("provisioning certificates")

	report, err := provision.New(cfg, g.Dir, p, inventory).Run(ctx)
	printReport(report)

	return err
}

func printReport(report *provision.Report) {
	if report == nil {
		return
	}

	fmt.Fprintf(output, "Run %s (%s)\n", report.RunID, report.State)
	fmt.Fprintf(output, "%-24s %-10s %-46s %-24s\n", "Name", "Status", "Fingerprint", "Expires")
	fmt.Fprintln(output, rule(104))

	units := append([]provision.UnitResult{report.CA}, report.Sites...)
	for _, unit := range units {
		if unit.Status == "" {
			continue
		}

		expires := ""
		if !unit.NotAfter.IsZero() {
			expires = formatTime(unit.NotAfter)
		}

		fmt.Fprintf(output, "%-24s %-10s %-46s %-24s\n",
			truncate(unit.Name, 24),
			unit.Status,
			unit.Fingerprint,
			expires)

		if unit.Err != nil {
			fmt.Fprintf(output, "  %v\n", unit.Err)
		}
	}

	if failed := report.Failed(); len(failed) > 0 {
		fmt.Fprintf(output, "\n%d of %d sites failed\n", len(failed), len(report.Sites))
	}
}
