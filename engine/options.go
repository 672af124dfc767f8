package engine

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/drummonds/pageshot/config"
)

// ConversionOptions is shared read-only by every task of one batch run
type ConversionOptions struct {
	DPI                 float64 `json:"dpi"`
	Format              string  `json:"format"`
	MaxWidth            int     `json:"maxWidth"`  // 0 = unlimited
	MaxHeight           int     `json:"maxHeight"` // 0 = unlimited
	PreserveAspectRatio bool    `json:"preserveAspectRatio"`
	JPEGQuality         int     `json:"jpegQuality"`
}

// DefaultOptions renders PNG at 300 dpi with no size limit
func DefaultOptions() ConversionOptions {
	return ConversionOptions{
		DPI:                 300.0,
		Format:              "png",
		PreserveAspectRatio: true,
		JPEGQuality:         95,
	}
}

// OptionsFromConfig picks the conversion settings out of the loaded configuration
func OptionsFromConfig(cfg config.Config) ConversionOptions {
	return ConversionOptions{
		DPI:                 cfg.DPI,
		Format:              cfg.Format,
		MaxWidth:            cfg.MaxWidth,
		MaxHeight:           cfg.MaxHeight,
		PreserveAspectRatio: cfg.PreserveAspectRatio,
		JPEGQuality:         cfg.JPEGQuality,
	}
}

// Extension is the file extension for the configured format. Unknown formats
// pass through unchanged so the encoder can reject them.
func (o ConversionOptions) Extension() string {
	ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(o.Format)), ".")
	if ext == "" {
		return "png"
	}
	return ext
}

// ComputeScale returns pixels per point on each axis for a page of the given
// size in points. The base is dpi/72; a configured max width or height lowers
// the scale of the axis that would overflow, and with PreserveAspectRatio both
// axes take the smaller of the two.
func ComputeScale(opts ConversionOptions, pageWidth, pageHeight float64) (scaleX, scaleY float64) {
	scaleX = opts.DPI / 72.0
	scaleY = opts.DPI / 72.0

	if opts.MaxWidth > 0 || opts.MaxHeight > 0 {
		targetWidth := pageWidth * scaleX
		targetHeight := pageHeight * scaleY

		if opts.MaxWidth > 0 && pageWidth > 0 && targetWidth > float64(opts.MaxWidth) {
			scaleX = float64(opts.MaxWidth) / pageWidth
		}
		if opts.MaxHeight > 0 && pageHeight > 0 && targetHeight > float64(opts.MaxHeight) {
			scaleY = float64(opts.MaxHeight) / pageHeight
		}

		if opts.PreserveAspectRatio {
			scale := min(scaleX, scaleY)
			scaleX, scaleY = scale, scale
		}
	}
	return scaleX, scaleY
}

// OutputFilename names the image for 1-based pageNumber of docPath, eg
// report.pdf page 7 -> report_page_007.png. Page numbers pad to three digits
// and grow past 999.
func OutputFilename(docPath string, pageNumber int, ext string) string {
	base := filepath.Base(docPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_page_%03d.%s", stem, pageNumber, ext)
}

// DefaultPageLimit is the page-render permit count: CPU count clamped to 2..8
func DefaultPageLimit() int {
	return max(2, min(runtime.NumCPU(), 8))
}

// NormalizeWorkers maps a non-positive worker count to the CPU count, falling
// back to 1.
func NormalizeWorkers(n int) int {
	if n > 0 {
		return n
	}
	n = runtime.NumCPU()
	if n <= 0 {
		n = 1
	}
	return n
}
