package etl

import (
	"archive/zip"
	"errors"
	"fmt"
	"path"
	"strings"
)

var ErrNoPremiumFile = errors.New("no premium file in archive")

// PremiumFile picks the nationwide premium table out of an archive listing.
// Workbooks win over CSV files; EU and validity tables are skipped.
func PremiumFile(names []string) (string, bool) {
	for _, name := range names {
		lower := strings.ToLower(path.Base(name))
		if strings.Contains(lower, "mien_ch") &&
			(strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls")) &&
			!strings.Contains(lower, "cheu") && !validityTable(lower) {
			return name, true
		}
	}
	for _, name := range names {
		lower := strings.ToLower(path.Base(name))
		if strings.Contains(lower, "mien_ch") && strings.HasSuffix(lower, ".csv") && !strings.Contains(lower, "cheu") {
			return name, true
		}
	}
	return "", false
}

// older archives mangle the umlaut in "gültig"
func validityTable(name string) bool {
	return strings.Contains(name, "gültig") || strings.Contains(name, "gltig")
}

// ReadArchive parses the premium file inside a downloaded yearly archive.
func ReadArchive(zipPath string) (string, []Row, error) {
	archive, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", nil, fmt.Errorf("zip.OpenReader: %w", err)
	}
	defer archive.Close()

	names := make([]string, 0, len(archive.File))
	files := make(map[string]*zip.File, len(archive.File))
	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
		files[f.Name] = f
	}

	name, ok := PremiumFile(names)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrNoPremiumFile, zipPath)
	}

	rc, err := files[name].Open()
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	rows, err := ReadFile(name, rc)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", name, err)
	}
	return name, rows, nil
}
