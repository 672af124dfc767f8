package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/oklog/ulid/v2"

	"github.com/drummonds/pageshot/config"
	"github.com/drummonds/pageshot/engine"
)

// console prints progress and the run summary. On a terminal progress is a
// single line redrawn in place, otherwise one line per claimed document.
type console struct {
	w       io.Writer
	tty     bool
	verbose bool
	quiet   bool

	mu   sync.Mutex
	last engine.ProgressSnapshot

	ok   *color.Color
	bad  *color.Color
	warn *color.Color
	bold *color.Color
}

func newConsole(w io.Writer, cfg config.Config) *console {
	c := &console{
		w:       w,
		verbose: cfg.Verbose,
		quiet:   cfg.Quiet,
		ok:      color.New(color.FgGreen, color.Bold),
		bad:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow),
		bold:    color.New(color.Bold),
	}
	if f, ok := w.(*os.File); ok {
		c.tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	if !c.tty {
		for _, col := range []*color.Color{c.ok, c.bad, c.warn, c.bold} {
			col.DisableColor()
		}
	}
	return c
}

// Progress is an engine.ProgressFunc
func (c *console) Progress(s engine.ProgressSnapshot) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = s
	if c.tty {
		fmt.Fprintf(c.w, "\r\033[K[%d/%d] %3d%% %s (%s pages so far)",
			s.CurrentFile, s.TotalFiles, s.Percent(), s.CurrentFilename, humanize.Comma(int64(s.PagesProcessed)))
		return
	}
	fmt.Fprintf(c.w, "[%d/%d] %s\n", s.CurrentFile, s.TotalFiles, s.CurrentFilename)
}

// Page is an engine.PageProgressFunc; it only draws on a terminal
func (c *console) Page(job engine.DocumentJob, done, total int) {
	if c.quiet || !c.tty {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\r\033[K[%d/%d] %s page %d/%d",
		c.last.CurrentFile, c.last.TotalFiles, job.Path, done, total)
}

// Summary prints the report of one run. runID is shown when history is kept.
func (c *console) Summary(result engine.BatchResult, runID ulid.ULID, history bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tty && !c.quiet {
		fmt.Fprint(c.w, "\r\033[K")
	}

	switch {
	case result.Cancelled:
		c.warn.Fprintf(c.w, "Cancelled after %d of %d documents\n", result.TotalPDFs, result.Discovered)
	case result.SuccessfulConversions == 0:
		c.bad.Fprintln(c.w, "No documents were converted")
	default:
		c.ok.Fprintln(c.w, "Conversion complete")
	}

	fmt.Fprintf(c.w, "  Elapsed:   %s\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(c.w, "  Documents: %d/%d converted", result.SuccessfulConversions, result.TotalPDFs)
	if result.FailedConversions > 0 {
		c.bad.Fprintf(c.w, " (%d failed)", result.FailedConversions)
	}
	fmt.Fprintln(c.w)
	fmt.Fprintf(c.w, "  Pages:     %s\n", humanize.Comma(int64(result.TotalPagesConverted)))
	fmt.Fprintf(c.w, "  Written:   %s\n", humanize.Bytes(uint64(result.BytesWritten)))
	if history {
		fmt.Fprintf(c.w, "  Run:       %s\n", runID)
	}

	if len(result.Errors) == 0 {
		return
	}
	if !c.verbose && result.TotalPDFs > 0 {
		c.warn.Fprintf(c.w, "%d errors, use --verbose to list them\n", len(result.Errors))
		return
	}
	c.bold.Fprintln(c.w, "Errors:")
	for _, e := range result.Errors {
		fmt.Fprintf(c.w, "  %s\n", e)
	}
}
