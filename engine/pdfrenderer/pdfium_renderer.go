package pdfrenderer

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/klippa-app/go-pdfium"
	pdfium_errors "github.com/klippa-app/go-pdfium/errors"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

const instanceTimeout = 30 * time.Second

// PDFiumRenderer implements PDF rendering using go-pdfium with WebAssembly (pure Go, no CGo).
// Every open document holds its own instance from the pool.
type PDFiumRenderer struct {
	pool     pdfium.Pool
	password string
}

// NewPDFiumRenderer creates a new PDFium-based PDF renderer using WebAssembly
func NewPDFiumRenderer(opts Options) (*PDFiumRenderer, error) {
	instances := opts.Instances
	if instances <= 0 {
		instances = 1
	}

	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  instances,
		MaxTotal: instances,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	return &PDFiumRenderer{
		pool:     pool,
		password: opts.Password,
	}, nil
}

// Open reads the PDF and opens it on a dedicated PDFium instance
func (r *PDFiumRenderer) Open(path string) (Document, error) {
	pdfBytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("%w: unable to read PDF file: %v", ErrDocumentCorrupt, err)
	}

	instance, err := r.pool.GetInstance(instanceTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	req := &requests.OpenDocument{File: &pdfBytes}
	if r.password != "" {
		req.Password = &r.password
	}
	doc, err := instance.OpenDocument(req)
	if err != nil {
		instance.Close()
		if errors.Is(err, pdfium_errors.ErrPassword) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentLocked, path)
		}
		return nil, fmt.Errorf("%w: unable to open PDF document: %v", ErrDocumentCorrupt, err)
	}

	pageCountResp, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		instance.Close()
		return nil, fmt.Errorf("%w: unable to get page count: %v", ErrDocumentCorrupt, err)
	}

	return &pdfiumDocument{
		instance: instance,
		doc:      doc.Document,
		pages:    pageCountResp.PageCount,
	}, nil
}

// Close cleans up resources used by the PDFium renderer
func (r *PDFiumRenderer) Close() error {
	if r.pool != nil {
		err := r.pool.Close()
		r.pool = nil
		return err
	}
	return nil
}

// pdfiumDocument guards its instance with a mutex, PDFium instances are single threaded
type pdfiumDocument struct {
	mu       sync.Mutex
	instance pdfium.Pdfium
	doc      references.FPDF_DOCUMENT
	pages    int
}

func (d *pdfiumDocument) PageCount() int {
	return d.pages
}

func (d *pdfiumDocument) page(index int) requests.Page {
	return requests.Page{
		ByIndex: &requests.PageByIndex{
			Document: d.doc,
			Index:    index,
		},
	}
}

func (d *pdfiumDocument) PageSize(index int) (float64, float64, error) {
	if err := checkIndex(index, d.pages); err != nil {
		return 0, 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	size, err := d.instance.GetPageSize(&requests.GetPageSize{Page: d.page(index)})
	if err != nil {
		return 0, 0, fmt.Errorf("%w: unable to read size of page %d: %v", ErrPageRender, index, err)
	}
	return size.Width, size.Height, nil
}

func (d *pdfiumDocument) RenderPage(index int, scaleX, scaleY float64) (image.Image, error) {
	width, height, err := d.PageSize(index)
	if err != nil {
		return nil, err
	}
	targetW, targetH := PixelSize(width, height, scaleX, scaleY)

	d.mu.Lock()
	defer d.mu.Unlock()

	pageRender, err := d.instance.RenderPageInPixels(&requests.RenderPageInPixels{
		Page:   d.page(index),
		Width:  targetW,
		Height: targetH,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: unable to render page %d: %v", ErrPageRender, index, err)
	}
	// Copy out of the instance before its buffers are released
	img := imaging.Clone(pageRender.Result.Image)
	pageRender.Cleanup()

	return img, nil
}

func (d *pdfiumDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: d.doc})
	if cerr := d.instance.Close(); err == nil {
		err = cerr
	}
	return err
}
