// internal/snapshot/capture.go
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"funnelgate/internal/logger"
)

// Capturer produces the results-page raster at a fixed local path.
type Capturer interface {
	Capture(ctx context.Context) error
}

// ChromeCapturer drives a headless browser: navigate, wait for the DOM,
// wait a fixed settle delay for client-side rendering, screenshot.
type ChromeCapturer struct {
	URL         string
	OutputPath  string
	SettleDelay time.Duration
	NavTimeout  time.Duration
}

func (c *ChromeCapturer) Capture(ctx context.Context) error {
	if c.NavTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.NavTimeout)
		defer cancel()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	logger.LogInfo("Capturing %s (settle delay %v)", c.URL, c.SettleDelay)

	var buf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(c.URL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(c.SettleDelay),
		chromedp.FullScreenshot(&buf, 90),
	)
	if err != nil {
		return fmt.Errorf("capturing %s: %w", c.URL, err)
	}

	if dir := filepath.Dir(c.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0775); err != nil {
			return fmt.Errorf("creating artifact directory: %w", err)
		}
	}
	if err := os.WriteFile(c.OutputPath, buf, 0664); err != nil {
		return fmt.Errorf("writing screenshot to %s: %w", c.OutputPath, err)
	}

	logger.LogInfo("Screenshot written to %s", c.OutputPath)
	return nil
}
