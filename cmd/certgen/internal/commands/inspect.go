package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfeidau/certgen/internal/pki"
	"github.com/wolfeidau/certgen/internal/store"
)

// InspectCmd prints the details of {dir}/{name}.crt and its inventory record.
type InspectCmd struct {
	Name string `arg:"" help:"Logical name of the certificate (e.g., root_ca, www)"`
	Dir  string `help:"Directory holding certificate files" default:"." env:"CERTGEN_DIR"`
}

func (c *InspectCmd) Run(ctx context.Context, globals *Globals) error {
	ctx = setupLogging(ctx, globals)

	cert, err := readCertificate(c.Dir, c.Name)
	if err != nil {
		return err
	}

	fingerprint := pki.Fingerprint(cert)
	_, certPath := pki.Paths(c.Dir, c.Name)

	fmt.Fprintf(output, "File:        %s\n", certPath)
	fmt.Fprintf(output, "Subject:     %s\n", cert.Subject)
	if email := pki.EmailFromName(cert.Subject); email != "" {
		fmt.Fprintf(output, "Email:       %s\n", email)
	}
	fmt.Fprintf(output, "Issuer:      %s\n", cert.Issuer)
	fmt.Fprintf(output, "Serial:      %s\n", cert.SerialNumber.Text(16))
	fmt.Fprintf(output, "Not Before:  %s\n", formatTime(cert.NotBefore))
	fmt.Fprintf(output, "Not After:   %s\n", formatTime(cert.NotAfter))
	fmt.Fprintf(output, "CA:          %t\n", pki.CheckCertificateAuthority(cert) == nil)
	fmt.Fprintf(output, "Server Auth: %t\n", pki.HasServerAuth(cert))

	if names, err := pki.ExtractDNSNames(cert); err == nil {
		fmt.Fprintf(output, "DNS Names:   %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintf(output, "Fingerprint: %s\n", fingerprint)

	return c.printInventory(ctx, fingerprint)
}

// printInventory shows the inventory record for the certificate file, or the one recorded under its name.
func (c *InspectCmd) printInventory(ctx context.Context, fingerprint string) error {
	inventory := store.NewFileCertificateStore(c.Dir)

	rec, err := inventory.GetByFingerprint(ctx, fingerprint)
	if err == nil {
		key := "clear"
		if rec.KeyEncrypted {
			key = "encrypted"
		}
		fmt.Fprintf(output, "Inventory:   %s recorded %s by run %s, key %s\n",
			rec.Name, formatTime(rec.RecordedAt), rec.RunID, key)
		return nil
	}
	if !errors.Is(err, store.ErrCertNotFound) {
		return fmt.Errorf("failed to read inventory: %w", err)
	}

	rec, err = inventory.Get(ctx, c.Name)
	switch {
	case err == nil:
		fmt.Fprintf(output, "Inventory:   stale, %s is recorded with fingerprint %s\n", c.Name, rec.Fingerprint)
	case errors.Is(err, store.ErrCertNotFound):
		fmt.Fprintln(output, "Inventory:   not recorded")
	default:
		return fmt.Errorf("failed to read inventory: %w", err)
	}

	return nil
}
