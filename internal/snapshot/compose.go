// internal/snapshot/compose.go
package snapshot

import (
	"fmt"
	"image/png"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jung-kurt/gofpdf"

	"funnelgate/internal/logger"
)

// Composer wraps the captured raster in a document at a fixed local path.
type Composer interface {
	Compose() error
}

// PDFComposer builds a single-page PDF sized exactly to the raster's
// pixel dimensions, with the image embedded at full size.
type PDFComposer struct {
	ImagePath string
	PDFPath   string
}

func (c *PDFComposer) Compose() error {
	width, height, err := BuildPDF(c.ImagePath, c.PDFPath)
	if err != nil {
		return err
	}

	stat, err := os.Stat(c.PDFPath)
	if err != nil {
		return fmt.Errorf("checking written PDF: %w", err)
	}

	logger.LogInfo("PDF written to %s (%dx%d, %s)", c.PDFPath, width, height,
		humanize.Bytes(uint64(stat.Size())))
	return nil
}

// BuildPDF writes a one-page PDF whose page dimensions in points equal the
// PNG's pixel dimensions. The file is fully flushed before this returns.
func BuildPDF(imagePath, pdfPath string) (width, height int, err error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return 0, 0, fmt.Errorf("opening screenshot %s: %w", imagePath, err)
	}
	cfg, err := png.DecodeConfig(f)
	f.Close()
	if err != nil {
		return 0, 0, fmt.Errorf("reading PNG dimensions: %w", err)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(cfg.Width), Ht: float64(cfg.Height)},
	})
	pdf.AddPage()
	pdf.ImageOptions(imagePath, 0, 0, float64(cfg.Width), float64(cfg.Height),
		false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	if err := pdf.OutputFileAndClose(pdfPath); err != nil {
		return 0, 0, fmt.Errorf("writing PDF to %s: %w", pdfPath, err)
	}

	return cfg.Width, cfg.Height, nil
}
