package pdfrenderer

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// FitzRenderer implements PDF rendering using go-fitz (requires CGo and MuPDF)
type FitzRenderer struct {
}

// NewFitzRenderer creates a new Fitz-based PDF renderer
func NewFitzRenderer(opts Options) (*FitzRenderer, error) {
	if opts.Password != "" {
		Logger.Warn("Password protected documents are not supported by the fitz renderer, use pdfium")
	}
	return &FitzRenderer{}, nil
}

// Open loads a PDF document using go-fitz
func (r *FitzRenderer) Open(path string) (Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDocumentNotFound, path, err)
	}

	doc, err := fitz.New(path)
	if err != nil {
		if errors.Is(err, fitz.ErrNeedsPassword) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentLocked, path)
		}
		return nil, fmt.Errorf("%w: unable to open PDF document: %v", ErrDocumentCorrupt, err)
	}

	return &fitzDocument{doc: doc, pages: doc.NumPage()}, nil
}

// Close cleans up resources (no-op for Fitz renderer as docs are closed by their owners)
func (r *FitzRenderer) Close() error {
	return nil
}

// fitzDocument serializes access to the MuPDF context; encoding and saving
// still run in parallel in the callers.
type fitzDocument struct {
	mu    sync.Mutex
	doc   *fitz.Document
	pages int
}

func (d *fitzDocument) PageCount() int {
	return d.pages
}

func (d *fitzDocument) PageSize(index int) (float64, float64, error) {
	if err := checkIndex(index, d.pages); err != nil {
		return 0, 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	// Bound is reported at 72 DPI, i.e. in points
	bounds, err := d.doc.Bound(index)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: unable to read bounds of page %d: %v", ErrPageRender, index, err)
	}
	return float64(bounds.Dx()), float64(bounds.Dy()), nil
}

func (d *fitzDocument) RenderPage(index int, scaleX, scaleY float64) (image.Image, error) {
	width, height, err := d.PageSize(index)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	img, err := d.doc.ImageDPI(index, math.Max(scaleX, scaleY)*72.0)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: unable to render page %d: %v", ErrPageRender, index, err)
	}

	// MuPDF renders uniformly, independent axes are resampled afterwards
	targetW, targetH := PixelSize(width, height, scaleX, scaleY)
	if b := img.Bounds(); b.Dx() != targetW || b.Dy() != targetH {
		return imaging.Resize(img, targetW, targetH, imaging.Lanczos), nil
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Close()
}
