package engine

import (
	"errors"

	"github.com/drummonds/pageshot/engine/pdfrenderer"
)

// Run level failures. Either one aborts a batch before any worker starts.
var (
	ErrOutputDirectory = errors.New("Failed to create output directory")
	ErrNoInput         = errors.New("No PDF files found in input directory")
)

// Page failures from the renderer that engine callers branch on
var (
	ErrInvalidPageIndex = pdfrenderer.ErrInvalidPageIndex
	ErrPageRender       = pdfrenderer.ErrPageRender
)

// ErrNoPagesConverted marks a loaded document where every page failed
var ErrNoPagesConverted = errors.New("No pages were successfully converted")
