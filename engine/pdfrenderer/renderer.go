package pdfrenderer

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Document load and page failures. Callers test with errors.Is.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentLocked   = errors.New("document is locked")
	ErrDocumentCorrupt  = errors.New("document is corrupt or unreadable")
	ErrInvalidPageIndex = errors.New("invalid page index")
	ErrPageRender       = errors.New("page render failed")
	ErrImageEncode      = errors.New("image encode failed")
)

// Renderer opens PDF documents for page-at-a-time rasterization
type Renderer interface {
	// Open loads the document at path. Failures wrap ErrDocumentNotFound,
	// ErrDocumentLocked or ErrDocumentCorrupt.
	Open(path string) (Document, error)

	// Close cleans up any resources used by the renderer
	Close() error
}

// Document is one opened PDF. Implementations must be safe for concurrent use.
type Document interface {
	// PageCount is read once after Open
	PageCount() int

	// PageSize returns the natural size of page index (0-based) in points
	PageSize(index int) (width, height float64, err error)

	// RenderPage rasterizes page index with scaleX/scaleY pixels per point
	RenderPage(index int, scaleX, scaleY float64) (image.Image, error)

	Close() error
}

// Options configures a renderer
type Options struct {
	// Instances bounds how many documents PDFium keeps open at once
	Instances int
	Password  string
}

// NewRenderer creates the named renderer. "pdfium" is pure Go (WebAssembly),
// "fitz" needs CGo and MuPDF.
func NewRenderer(name string, opts Options) (Renderer, error) {
	switch name {
	case "", "pdfium":
		return NewPDFiumRenderer(opts)
	case "fitz":
		return NewFitzRenderer(opts)
	default:
		return nil, fmt.Errorf("unknown renderer %q", name)
	}
}

// PixelSize converts a page size in points and a per-axis scale into whole pixels.
func PixelSize(width, height, scaleX, scaleY float64) (int, int) {
	w := int(math.Round(width * scaleX))
	h := int(math.Round(height * scaleY))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func checkIndex(index, count int) error {
	if index < 0 || index >= count {
		return fmt.Errorf("%w: %d (document has %d pages)", ErrInvalidPageIndex, index, count)
	}
	return nil
}
