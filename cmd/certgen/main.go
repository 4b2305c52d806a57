package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/certgen/cmd/certgen/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Generate commands.GenerateCmd `cmd:"" help:"Create the root CA if needed and issue every configured site certificate"`
		Inspect  commands.InspectCmd  `cmd:"" help:"Show the details of a certificate file"`
		List     commands.ListCmd     `cmd:"" help:"List certificates recorded in the inventory"`
		Verify   commands.VerifyCmd   `cmd:"" help:"Verify site certificates chain to the root CA"`
		Debug    bool                 `help:"Enable debug mode."`
		Version  kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("certgen"),
		kong.Description("Private PKI provisioner for a root CA and its TLS site certificates."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
