package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfeidau/certgen/internal/store"
)

// ListCmd prints the certificate inventory.
type ListCmd struct {
	Dir   string `help:"Directory holding the inventory" default:"." env:"CERTGEN_DIR"`
	All   bool   `help:"Include expired certificates" default:"false"`
	Limit int    `help:"Maximum number of certificates to show (0 for all)" default:"0"`
}

func (l *ListCmd) Run(ctx context.Context, globals *Globals) error {
	ctx = setupLogging(ctx, globals)

	inventory := store.NewFileCertificateStore(l.Dir)

	certs, err := inventory.List(ctx, store.ListCertificatesOptions{
		IncludeExpired: l.All,
		Limit:          l.Limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list certificates: %w", err)
	}

	if len(certs) == 0 {
		fmt.Fprintln(output, "No certificates found.")
		return nil
	}

	now := time.Now()

	fmt.Fprintf(output, "%-20s %-4s %-36s %-24s %-10s %s\n",
		"Name", "CA", "DNS Names", "Expires", "Days Left", "Key")
	fmt.Fprintln(output, rule(110))

	for _, cert := range certs {
		ca := ""
		if cert.IsCA {
			ca = "yes"
		}

		key := "clear"
		if cert.KeyEncrypted {
			key = "encrypted"
		}

		days := fmt.Sprintf("%d", cert.DaysRemaining(now))
		if cert.Expired(now) {
			days = "expired"
		}

		fmt.Fprintf(output, "%-20s %-4s %-36s %-24s %-10s %s\n",
			truncate(cert.Name, 20),
			ca,
			truncate(strings.Join(cert.DNSNames, ","), 36),
			formatTime(cert.NotAfter),
			days,
			key)
	}

	fmt.Fprintf(output, "\nTotal certificates: %d\n", len(certs))
	return nil
}
