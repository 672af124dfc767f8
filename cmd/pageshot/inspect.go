package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/drummonds/pageshot/engine"
	"github.com/drummonds/pageshot/engine/pdfinfo"
)

// inspection is the inspect output for one document
type inspection struct {
	*pdfinfo.Info
	Path  string `json:"path"`
	Valid *bool  `json:"valid,omitempty"`
	Error string `json:"error,omitempty"`
}

func newInspectCmd(app *cli) *cobra.Command {
	var validate, asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect PATH",
		Short: "Show page counts and page sizes of a PDF or a directory of PDFs",
		Long: `Read page counts and page sizes without rendering anything.

With --validate every document is also checked structurally and its page count
is cross-checked against a second parser.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.load("", ""); err != nil {
				return err
			}

			paths := []string{args[0]}
			if fi, err := os.Stat(args[0]); err != nil {
				return err
			} else if fi.IsDir() {
				if paths, err = engine.Discover(args[0]); err != nil {
					return err
				}
			}

			results := make([]inspection, 0, len(paths))
			failed := 0
			for _, path := range paths {
				result := inspect(path, validate)
				if result.Error != "" {
					failed++
				}
				results = append(results, result)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					printInspection(w, r)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed inspection", failed, len(paths))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", false, "validate document structure")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func inspect(path string, validate bool) inspection {
	result := inspection{Path: path}
	info, err := pdfinfo.Probe(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Info = info

	if validate {
		valid := true
		if err := pdfinfo.Validate(path, info.PageCount); err != nil {
			valid = false
			result.Error = err.Error()
		}
		result.Valid = &valid
	}
	return result
}

func printInspection(w io.Writer, r inspection) {
	if r.Info == nil {
		fmt.Fprintf(w, "%s: %s\n", r.Path, r.Error)
		return
	}
	fmt.Fprintf(w, "%s: %d pages\n", r.Path, r.PageCount)
	for i, page := range r.Pages {
		fmt.Fprintf(w, "  page %d: %gx%g pt\n", i+1, page.Width, page.Height)
	}
	switch {
	case r.Valid == nil:
	case *r.Valid:
		fmt.Fprintln(w, "  valid")
	default:
		fmt.Fprintf(w, "  invalid: %s\n", r.Error)
	}
}
