package engine

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Document extensions picked up by Discover (lowercase, with leading dot)
var documentExtensions = map[string]bool{
	".pdf": true,
}

// Discover walks inputDir recursively, collects regular files with a .pdf
// extension in any case and returns them sorted for a deterministic claim order.
func Discover(inputDir string) ([]string, error) {
	if err := inputDirectoryChecks(inputDir); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(inputDir, collectDocuments(inputDir, &files))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	Logger.Info("Found PDF files in directory", "count", len(files), "path", inputDir)
	return files, nil
}

// collectDocuments appends matching files to files. An unreadable entry below
// root is logged and skipped so the rest of the tree is still discovered.
func collectDocuments(root string, files *[]string) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			Logger.Warn("Skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if documentExtensions[strings.ToLower(filepath.Ext(path))] {
			*files = append(*files, path)
		}
		return nil
	}
}
