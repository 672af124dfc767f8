package pdfrenderer

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func testImage(w, h int) image.Image {
	return imaging.New(w, h, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
}

func TestPixelSize(t *testing.T) {
	tests := []struct {
		name         string
		w, h, sx, sy float64
		wantW, wantH int
	}{
		{"300 dpi letter-ish", 600, 800, 300.0 / 72, 300.0 / 72, 2500, 3333},
		{"width constrained", 600, 800, 800.0 / 600, 800.0 / 600, 800, 1067},
		{"independent axes", 600, 800, 1, 0.5, 600, 400},
		{"never below one pixel", 0.1, 0.1, 1, 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := PixelSize(tt.w, tt.h, tt.sx, tt.sy)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("PixelSize = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestSaveImage_Formats(t *testing.T) {
	dir := t.TempDir()
	img := testImage(12, 8)

	for _, format := range []string{"png", "jpg", "jpeg", "gif", "tif", "bmp"} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(dir, "page."+format)
			n, err := SaveImage(img, path, format, 90)
			if err != nil {
				t.Fatalf("SaveImage(%s) failed: %v", format, err)
			}
			if n <= 0 {
				t.Errorf("Expected bytes written for %s, got %d", format, n)
			}

			decoded, err := imaging.Open(path)
			if err != nil {
				t.Fatalf("Unable to decode saved %s: %v", format, err)
			}
			if b := decoded.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
				t.Errorf("Decoded %s has size %dx%d, want 12x8", format, b.Dx(), b.Dy())
			}
		})
	}
}

func TestSaveImage_UnknownFormatFailsAtEncoder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.webp")
	_, err := SaveImage(testImage(4, 4), path, "webp", 0)
	if !errors.Is(err, ErrImageEncode) {
		t.Fatalf("Expected ErrImageEncode, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("Expected no output file for an unsupported format")
	}
}

func TestSaveImage_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "page.png")
	_, err := SaveImage(testImage(4, 4), path, "png", 0)
	if !errors.Is(err, ErrImageEncode) {
		t.Fatalf("Expected ErrImageEncode for missing directory, got %v", err)
	}
}

func TestNewRenderer_Unknown(t *testing.T) {
	if _, err := NewRenderer("poppler", Options{}); err == nil {
		t.Error("Expected error for unknown renderer")
	}
}

func TestFitzRenderer_MissingFile(t *testing.T) {
	r, err := NewFitzRenderer(Options{})
	if err != nil {
		t.Fatalf("NewFitzRenderer failed: %v", err)
	}
	_, err = r.Open(filepath.Join(t.TempDir(), "nope.pdf"))
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Expected ErrDocumentNotFound, got %v", err)
	}
}

func TestFitzRenderer_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}
	r, _ := NewFitzRenderer(Options{})
	_, err := r.Open(path)
	if err == nil {
		t.Fatal("Expected error opening corrupt file")
	}
	if errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Corrupt file reported as missing: %v", err)
	}
}

func TestPDFiumRenderer_MissingFile(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PDFium WebAssembly test in short mode")
	}
	r, err := NewPDFiumRenderer(Options{Instances: 1})
	if err != nil {
		t.Fatalf("NewPDFiumRenderer failed: %v", err)
	}
	defer r.Close()

	_, err = r.Open(filepath.Join(t.TempDir(), "nope.pdf"))
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Expected ErrDocumentNotFound, got %v", err)
	}
}
