// Package testpdf writes small, valid PDF files for tests.
package testpdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// Page is a page size in points. A zero Page inherits the document default.
type Page struct {
	Width  float64
	Height float64
}

// DefaultPage is the MediaBox set on the page tree root
var DefaultPage = Page{Width: 612, Height: 792}

// Write creates a PDF at path with one blank page per entry in pages.
func Write(path string, pages []Page) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, Build(pages), 0644)
}

// Build returns the bytes of a PDF with one blank page per entry in pages.
func Build(pages []Page) []byte {
	var objects []string

	// 1: catalog, 2: page tree, 3: shared empty content stream, 4..: pages
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 4+i)
	}
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %s %s] >>",
		kids, len(pages), num(DefaultPage.Width), num(DefaultPage.Height)))
	objects = append(objects, "<< /Length 0 >>\nstream\n\nendstream")
	for _, p := range pages {
		box := ""
		if p.Width > 0 && p.Height > 0 {
			box = fmt.Sprintf(" /MediaBox [0 0 %s %s]", num(p.Width), num(p.Height))
		}
		objects = append(objects, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Contents 3 0 R /Resources << >>%s >>", box))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func num(f float64) string {
	return fmt.Sprintf("%g", f)
}
