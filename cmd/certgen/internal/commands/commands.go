package commands

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/wolfeidau/certgen/internal/logger"
)

type Globals struct {
	Debug   bool
	Version string
}

// output is where command results are printed, logs go to stderr.
var output io.Writer = os.Stdout

func setupLogging(ctx context.Context, globals *Globals) context.Context {
	return logger.WithContext(ctx, logger.Setup(globals.Debug))
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

func rule(n int) string {
	return strings.Repeat("─", n)
}
