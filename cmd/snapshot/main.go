// cmd/snapshot/main.go
package main

import (
	"context"
	"log"
	"os"

	"funnelgate/internal/config"
	"funnelgate/internal/email"
	"funnelgate/internal/logger"
	"funnelgate/internal/metrics"
	"funnelgate/internal/snapshot"
)

// One-shot batch job: screenshot the results page, wrap it in a PDF,
// email the PDF. Any failure aborts the remaining steps.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Setup(cfg.Logs); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if cfg.Snapshot.ResultsURL == "" {
		logger.LogFatal("SNAPSHOT_RESULTS_URL is not set")
	}
	if !cfg.Email.MockMode {
		if err := cfg.RequireSMTP(); err != nil {
			logger.LogFatal("SMTP configuration incomplete: %v", err)
		}
	}

	mailer := email.NewSMTPMailer(cfg.SMTP, cfg.Email)

	// Run counters are process-local and only land on /metrics when the
	// pipeline runs inside the server process. This binary reports through
	// its exit code and logs.
	pipeline := snapshot.FromConfig(cfg, mailer, metrics.New())

	if err := pipeline.Run(context.Background()); err != nil {
		os.Exit(1)
	}
}
