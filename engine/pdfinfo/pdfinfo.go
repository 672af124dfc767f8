// Package pdfinfo inspects PDF documents without rasterizing them: page counts,
// natural page sizes and structural validation.
package pdfinfo

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageBox is a page's MediaBox size in points
type PageBox struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Info describes one PDF document
type Info struct {
	Path      string    `json:"path"`
	PageCount int       `json:"pageCount"`
	Pages     []PageBox `json:"pages"`
}

// Probe reads the page tree of the PDF at path and returns its page count and
// the size of every page.
func Probe(path string) (*Info, error) {
	pdfFile, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF %s: %w", path, err)
	}
	defer pdfFile.Close()

	info := &Info{Path: path, PageCount: reader.NumPage()}
	info.Pages = make([]PageBox, 0, info.PageCount)
	for pageNum := 1; pageNum <= info.PageCount; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			info.Pages = append(info.Pages, PageBox{})
			continue
		}
		info.Pages = append(info.Pages, mediaBox(page.V))
	}
	return info, nil
}

// mediaBox follows the Parent chain since MediaBox is inheritable
func mediaBox(v pdf.Value) PageBox {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			llx, lly := box.Index(0).Float64(), box.Index(1).Float64()
			urx, ury := box.Index(2).Float64(), box.Index(3).Float64()
			return PageBox{Width: abs(urx - llx), Height: abs(ury - lly)}
		}
		v = v.Key("Parent")
	}
	return PageBox{}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Validate runs pdfcpu's structural validation and cross-checks the page count
// reported by Probe.
func Validate(path string, expectedPages int) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if err := api.ValidateFile(path, nil); err != nil {
		return fmt.Errorf("validation failed for %s: %w", path, err)
	}
	count, err := api.PageCountFile(path)
	if err != nil {
		return fmt.Errorf("failed to get page count for %s: %w", path, err)
	}
	if expectedPages >= 0 && count != expectedPages {
		return fmt.Errorf("page count mismatch for %s: pdfcpu=%d probe=%d", path, count, expectedPages)
	}
	return nil
}
