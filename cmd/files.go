package cmd

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nutrilens/nlens/internal/nutrilens/attachment"
)

// expandImagePaths resolves paths and glob patterns ("meals/*.jpg",
// "photos/**/*.png") to file paths, keeping order and dropping duplicates.
func expandImagePaths(patterns []string) ([]string, []error) {
	var (
		paths []string
		errs  []error
		seen  = make(map[string]bool)
	)
	for _, p := range patterns {
		matches := []string{p}
		if strings.ContainsAny(p, "*?[{") {
			m, err := doublestar.FilepathGlob(p)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid pattern %q: %w", p, err))
				continue
			}
			if len(m) == 0 {
				errs = append(errs, fmt.Errorf("no files match %q", p))
				continue
			}
			matches = m
		}
		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true
			paths = append(paths, path)
		}
	}
	return paths, errs
}

// readImageFiles loads every file matched by patterns. Unreadable files are
// reported and skipped.
func readImageFiles(patterns []string) ([]attachment.File, []error) {
	paths, errs := expandImagePaths(patterns)
	files := make([]attachment.File, 0, len(paths))
	for _, path := range paths {
		f, err := attachment.ReadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, f)
	}
	return files, errs
}
