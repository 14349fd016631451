package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FormatOf maps a file extension to a budget format.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	case ".json":
		return FormatJSON, true
	}
	return "", false
}

// Discover returns the budget files at path. A regular file is returned as-is
// when its extension is recognised; a directory is walked recursively and
// files come back in lexical order.
func Discover(path string) ([]DiscoveredFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if !info.IsDir() {
		format, ok := FormatOf(path)
		if !ok {
			return nil, fmt.Errorf("unsupported budget file %s (want .yaml, .toml or .json)", path)
		}
		return []DiscoveredFile{{Path: path, Format: format}}, nil
	}
	return ScanDir(path)
}

// ScanDir walks dir and collects every budget file. Hidden files and
// directories are skipped.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	var files []DiscoveredFile

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}
		name := d.Name()
		if path != dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		format, ok := FormatOf(name)
		if !ok {
			return nil
		}
		files = append(files, DiscoveredFile{Path: path, Format: format})
		return nil
	})

	return files, err
}
