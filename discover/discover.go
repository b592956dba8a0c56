package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/TFMV/rsmetrics/types"
	"github.com/bmatcuk/doublestar/v4"
)

// Ext is the extension of the files the analyzer reads.
const Ext = ".rs"

// Walk collects every Rust file under root, in lexical order, skipping
// anything matched by an exclude pattern. root may also be a single file.
func Walk(root string, excludes []string) ([]types.Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}

	if !info.IsDir() {
		if filepath.Ext(root) != Ext {
			return nil, nil
		}
		src, err := read(root)
		if err != nil {
			return nil, err
		}
		return []types.Source{src}, nil
	}

	var sources []types.Source
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk directory: %w", err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel != "." && Excluded(filepath.ToSlash(rel), excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != Ext {
			return nil
		}

		src, err := read(path)
		if err != nil {
			return err
		}
		sources = append(sources, src)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sources, nil
}

func read(path string) (types.Source, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.Source{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return types.Source{Path: path, Content: content}, nil
}

// Excluded reports whether a slash-separated relative path matches any of
// the patterns. A glob is matched against both the full path and the base
// name; a plain word excludes every entry whose name contains it.
func Excluded(rel string, patterns []string) bool {
	base := rel
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		base = rel[i+1:]
	}

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if !strings.ContainsAny(pattern, "*?[{") {
			if strings.Contains(base, pattern) || rel == pattern {
				return true
			}
			continue
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
