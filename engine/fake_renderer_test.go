package engine

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drummonds/pageshot/engine/pdfrenderer"
)

// fakeDoc describes one document known to fakeRenderer
type fakeDoc struct {
	pages   int
	width   float64 // points, 612 if zero
	height  float64 // points, 792 if zero
	corrupt bool
	locked  bool
	fail    map[int]bool // 0-based pages whose render fails
	panics  map[int]bool // 0-based pages whose render panics
}

type renderCall struct {
	path   string
	index  int
	scaleX float64
	scaleY float64
}

// fakeRenderer serves documents from memory and instruments concurrency
type fakeRenderer struct {
	docs  map[string]fakeDoc // keyed by base name
	delay time.Duration

	opens   atomic.Int64
	renders atomic.Int64

	active    atomic.Int64
	maxActive atomic.Int64

	mu        sync.Mutex
	docActive map[string]int
	docMax    map[string]int
	calls     []renderCall
}

func newFakeRenderer(docs map[string]fakeDoc) *fakeRenderer {
	return &fakeRenderer{
		docs:      docs,
		docActive: make(map[string]int),
		docMax:    make(map[string]int),
	}
}

func (r *fakeRenderer) Open(path string) (pdfrenderer.Document, error) {
	r.opens.Add(1)
	d, ok := r.docs[filepath.Base(path)]
	switch {
	case !ok:
		return nil, fmt.Errorf("%w: %s", pdfrenderer.ErrDocumentNotFound, path)
	case d.corrupt:
		return nil, fmt.Errorf("%w: %s", pdfrenderer.ErrDocumentCorrupt, path)
	case d.locked:
		return nil, fmt.Errorf("%w: %s", pdfrenderer.ErrDocumentLocked, path)
	}
	return &fakeDocument{r: r, path: path, doc: d}, nil
}

func (r *fakeRenderer) Close() error { return nil }

// maxFor is the highest number of simultaneous renders seen for one document
func (r *fakeRenderer) maxFor(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docMax[name]
}

func (r *fakeRenderer) renderCalls() []renderCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]renderCall(nil), r.calls...)
}

func (r *fakeRenderer) enter(name string) {
	n := r.active.Add(1)
	for {
		m := r.maxActive.Load()
		if n <= m || r.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	r.mu.Lock()
	r.docActive[name]++
	if r.docActive[name] > r.docMax[name] {
		r.docMax[name] = r.docActive[name]
	}
	r.mu.Unlock()
}

func (r *fakeRenderer) leave(name string) {
	r.active.Add(-1)
	r.mu.Lock()
	r.docActive[name]--
	r.mu.Unlock()
}

type fakeDocument struct {
	r    *fakeRenderer
	path string
	doc  fakeDoc
}

func (d *fakeDocument) PageCount() int { return d.doc.pages }

func (d *fakeDocument) PageSize(index int) (float64, float64, error) {
	if index < 0 || index >= d.doc.pages {
		return 0, 0, fmt.Errorf("%w: %d", pdfrenderer.ErrInvalidPageIndex, index)
	}
	w, h := d.doc.width, d.doc.height
	if w == 0 {
		w = 612
	}
	if h == 0 {
		h = 792
	}
	return w, h, nil
}

func (d *fakeDocument) RenderPage(index int, scaleX, scaleY float64) (image.Image, error) {
	name := filepath.Base(d.path)
	d.r.enter(name)
	defer d.r.leave(name)
	d.r.renders.Add(1)

	d.r.mu.Lock()
	d.r.calls = append(d.r.calls, renderCall{path: d.path, index: index, scaleX: scaleX, scaleY: scaleY})
	d.r.mu.Unlock()

	if d.r.delay > 0 {
		time.Sleep(d.r.delay)
	}
	if d.doc.panics[index] {
		panic(fmt.Sprintf("render exploded on page %d", index+1))
	}
	if d.doc.fail[index] {
		return nil, fmt.Errorf("%w: page %d", pdfrenderer.ErrPageRender, index)
	}

	// Tiny image keeps encoding cheap; the scale is checked through calls
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	return img, nil
}

func (d *fakeDocument) Close() error { return nil }
