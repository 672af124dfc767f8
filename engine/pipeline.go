package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/drummonds/pageshot/engine/pdfrenderer"
)

// DocumentJob is one discovered input file and its position in the job list
type DocumentJob struct {
	Path    string `json:"path"`
	Ordinal int    `json:"ordinal"`
}

// PageOutcome is the result of one page task
type PageOutcome struct {
	Index   int
	Success bool
	Err     error
	Bytes   int64
}

// ConversionResult is the outcome of one document
type ConversionResult struct {
	Path           string        `json:"path"`
	Success        bool          `json:"success"`
	ErrorMessage   string        `json:"error,omitempty"`
	Err            error         `json:"-"`
	PageCount      int           `json:"pageCount"`
	PagesConverted int           `json:"pagesConverted"`
	BytesWritten   int64         `json:"bytesWritten"`
	Duration       time.Duration `json:"duration"`
}

// SaveFunc encodes an image to disk and returns the bytes written
type SaveFunc func(img image.Image, path, format string, jpegQuality int) (int64, error)

// PagePipeline converts the pages of one document at a time, rendering pages
// concurrently up to the page limit.
type PagePipeline struct {
	Renderer  pdfrenderer.Renderer
	Options   ConversionOptions
	OutputDir string
	// PageLimit sizes the limiter created for each document when Limiter is nil
	PageLimit int
	// Limiter, when set, is shared by every document this pipeline converts
	Limiter *PageLimiter
	// OnPage is called after every page task of a document finishes
	OnPage PageProgressFunc
	// Save defaults to pdfrenderer.SaveImage
	Save SaveFunc
}

func (p *PagePipeline) limiter() *PageLimiter {
	if p.Limiter != nil {
		return p.Limiter
	}
	return NewPageLimiter(p.PageLimit)
}

func (p *PagePipeline) save() SaveFunc {
	if p.Save != nil {
		return p.Save
	}
	return pdfrenderer.SaveImage
}

// Convert renders every page of job into OutputDir. It waits for all page
// tasks; the document succeeds when at least one page was written. A claimed
// document always runs to completion: cancelling ctx does not stop its pages.
func (p *PagePipeline) Convert(ctx context.Context, job DocumentJob) (result ConversionResult) {
	start := time.Now()
	result.Path = job.Path
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered converting document", "path", job.Path, "panic", r)
			result.Success = false
			result.Err = fmt.Errorf("panic: %v", r)
			result.ErrorMessage = fmt.Sprintf("Panic during conversion: %v", r)
		}
		result.Duration = time.Since(start)
	}()

	doc, err := p.Renderer.Open(job.Path)
	if err != nil {
		Logger.Error("Failed to load PDF document", "path", job.Path, "error", err)
		result.Err = err
		result.ErrorMessage = "Failed to load PDF document"
		return result
	}
	defer func() {
		if err := doc.Close(); err != nil {
			Logger.Warn("Failed to close PDF document", "path", job.Path, "error", err)
		}
	}()

	pageCount := doc.PageCount()
	result.PageCount = pageCount
	Logger.Debug("Converting PDF", "path", job.Path, "pages", pageCount)

	outcomes := make([]PageOutcome, pageCount)
	limiter := p.limiter()
	pageCtx := context.WithoutCancel(ctx)
	var (
		wg      sync.WaitGroup
		doneMu  sync.Mutex
		done    int
		onPage  = p.OnPage
		pageEnd = func() {
			if onPage == nil {
				return
			}
			doneMu.Lock()
			done++
			n := done
			doneMu.Unlock()
			onPage(job, n, pageCount)
		}
	)

	for i := 0; i < pageCount; i++ {
		if err := limiter.Acquire(pageCtx); err != nil {
			outcomes[i] = PageOutcome{Index: i, Err: fmt.Errorf("page %d not started: %w", i+1, err)}
			pageEnd()
			continue
		}
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			defer pageEnd()
			defer limiter.Release()
			defer func() {
				if r := recover(); r != nil {
					Logger.Error("Panic recovered in page task", "path", job.Path, "page", index+1, "panic", r)
					outcomes[index] = PageOutcome{Index: index, Err: fmt.Errorf("%w: panic: %v", ErrPageRender, r)}
				}
			}()
			outcomes[index] = p.convertPage(doc, job.Path, index)
		}(i)
	}
	wg.Wait()

	for _, o := range outcomes {
		if o.Success {
			result.PagesConverted++
			result.BytesWritten += o.Bytes
			continue
		}
		Logger.Warn("Page conversion failed", "path", job.Path, "page", o.Index+1, "error", o.Err)
	}

	result.Success = result.PagesConverted > 0
	if !result.Success {
		result.Err = ErrNoPagesConverted
		if pageCount == 0 {
			result.Err = fmt.Errorf("%w: document has no pages", ErrNoPagesConverted)
		}
		result.ErrorMessage = ErrNoPagesConverted.Error()
	}
	return result
}

// convertPage renders and saves one page; index is 0-based
func (p *PagePipeline) convertPage(doc pdfrenderer.Document, docPath string, index int) PageOutcome {
	outcome := PageOutcome{Index: index}
	ext := p.Options.Extension()
	outPath := filepath.Join(p.OutputDir, OutputFilename(docPath, index+1, ext))

	n, err := renderAndSave(doc, index, outPath, p.Options, p.save())
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Success = true
	outcome.Bytes = n
	return outcome
}

func renderAndSave(doc pdfrenderer.Document, index int, outPath string, opts ConversionOptions, save SaveFunc) (int64, error) {
	width, height, err := doc.PageSize(index)
	if err != nil {
		return 0, err
	}
	scaleX, scaleY := ComputeScale(opts, width, height)

	img, err := doc.RenderPage(index, scaleX, scaleY)
	if err != nil {
		return 0, err
	}
	if img == nil {
		return 0, fmt.Errorf("%w: renderer returned no image for page %d", ErrPageRender, index+1)
	}
	return save(img, outPath, opts.Extension(), opts.JPEGQuality)
}

// ConvertPage converts the 1-based pageNumber of the document at docPath into
// outputPath, creating its directory.
func ConvertPage(renderer pdfrenderer.Renderer, docPath string, pageNumber int, outputPath string, opts ConversionOptions) (result ConversionResult) {
	start := time.Now()
	result.Path = docPath
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered converting page", "path", docPath, "page", pageNumber, "panic", r)
			result.Success = false
			result.PagesConverted = 0
			result.Err = fmt.Errorf("%w: panic: %v", ErrPageRender, r)
			result.ErrorMessage = "Failed to save page as image"
		}
		result.Duration = time.Since(start)
	}()

	doc, err := renderer.Open(docPath)
	if err != nil {
		result.Err = err
		result.ErrorMessage = "Failed to load PDF document"
		return result
	}
	defer doc.Close()
	result.PageCount = doc.PageCount()

	if pageNumber < 1 || pageNumber > result.PageCount {
		result.Err = fmt.Errorf("%w: page %d of %d", ErrInvalidPageIndex, pageNumber, result.PageCount)
		result.ErrorMessage = "Invalid page number"
		return result
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrOutputDirectory, err)
		result.ErrorMessage = ErrOutputDirectory.Error()
		return result
	}

	n, err := renderAndSave(doc, pageNumber-1, outputPath, opts, pdfrenderer.SaveImage)
	if err != nil {
		result.Err = err
		result.ErrorMessage = "Failed to save page as image"
		if errors.Is(err, ErrPageRender) {
			result.ErrorMessage = "Failed to render page"
		}
		return result
	}

	result.Success = true
	result.PagesConverted = 1
	result.BytesWritten = n
	return result
}
