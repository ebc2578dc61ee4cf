// internal/snapshot/pipeline.go
package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"funnelgate/internal/config"
	"funnelgate/internal/email"
	"funnelgate/internal/logger"
	"funnelgate/internal/metrics"
)

// Pipeline is the result-delivery automation: capture, compose, mail.
// Strictly ordered, one outstanding step at a time; the first failure
// aborts everything after it. One invocation, no queueing, no retry.
type Pipeline struct {
	capturer Capturer
	composer Composer
	mailer   email.Sender
	pdfPath  string
	metrics  *metrics.Metrics
}

func NewPipeline(capturer Capturer, composer Composer, mailer email.Sender,
	pdfPath string, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		capturer: capturer,
		composer: composer,
		mailer:   mailer,
		pdfPath:  pdfPath,
		metrics:  m,
	}
}

// FromConfig assembles the production pipeline.
func FromConfig(cfg *config.Config, mailer email.Sender, m *metrics.Metrics) *Pipeline {
	capturer := &ChromeCapturer{
		URL:         cfg.Snapshot.ResultsURL,
		OutputPath:  cfg.Snapshot.ScreenshotPath,
		SettleDelay: cfg.Snapshot.SettleDelay,
		NavTimeout:  cfg.Snapshot.NavTimeout,
	}
	composer := &PDFComposer{
		ImagePath: cfg.Snapshot.ScreenshotPath,
		PDFPath:   cfg.Snapshot.PDFPath,
	}
	return NewPipeline(capturer, composer, mailer, cfg.Snapshot.PDFPath, m)
}

// Run executes the pipeline once. Mail is only attempted after the PDF
// write has completed.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.capturer.Capture(ctx); err != nil {
		return p.fail("capture", err)
	}

	if err := p.composer.Compose(); err != nil {
		return p.fail("compose", err)
	}

	msg := email.Message{
		Subject:     fmt.Sprintf("Results snapshot %s", time.Now().Format("2006-01-02")),
		Body:        fmt.Sprintf("Attached: %s", filepath.Base(p.pdfPath)),
		Attachments: []string{p.pdfPath},
	}
	if err := p.mailer.Send(msg); err != nil {
		return p.fail("mail", err)
	}

	p.metrics.SnapshotRunsTotal.WithLabelValues("ok").Inc()
	logger.LogInfo("Snapshot pipeline completed")
	return nil
}

func (p *Pipeline) fail(step string, err error) error {
	p.metrics.SnapshotRunsTotal.WithLabelValues("error").Inc()
	logger.LogError("Snapshot pipeline aborted at %s step: %v", step, err)
	return fmt.Errorf("%s step: %w", step, err)
}
