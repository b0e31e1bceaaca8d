package migrate

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	annotationUp        = "-- +goose Up"
	annotationDown      = "-- +goose Down"
	annotationStmtBegin = "-- +goose StatementBegin"
	annotationStmtEnd   = "-- +goose StatementEnd"
)

// ValidateDir runs ValidateFS over migrations stored in dir.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("dir is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateFS checks that filenames carry unique YYYYMMDDHHMMSS versions and
// that each file has an Up section before its Down section with balanced
// StatementBegin/StatementEnd blocks.
func ValidateFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		version := m[1]
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read file %q: %w", name, err)
		}
		if err := checkAnnotations(string(body)); err != nil {
			return fmt.Errorf("migration %q: %w", name, err)
		}
	}
	return nil
}

func checkAnnotations(body string) error {
	var (
		upLine, downLine int
		openBlock        int
		line             int
	)
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line++
		switch strings.TrimSpace(scanner.Text()) {
		case annotationUp:
			if upLine != 0 {
				return fmt.Errorf("line %d: second %q", line, annotationUp)
			}
			upLine = line
		case annotationDown:
			if downLine != 0 {
				return fmt.Errorf("line %d: second %q", line, annotationDown)
			}
			if openBlock != 0 {
				return fmt.Errorf("line %d: %q inside an open statement block", line, annotationDown)
			}
			downLine = line
		case annotationStmtBegin:
			if openBlock != 0 {
				return fmt.Errorf("line %d: nested %q", line, annotationStmtBegin)
			}
			openBlock = line
		case annotationStmtEnd:
			if openBlock == 0 {
				return fmt.Errorf("line %d: %q without a matching begin", line, annotationStmtEnd)
			}
			openBlock = 0
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	switch {
	case upLine == 0:
		return fmt.Errorf("missing %q", annotationUp)
	case downLine == 0:
		return fmt.Errorf("missing %q", annotationDown)
	case downLine < upLine:
		return fmt.Errorf("%q appears before %q", annotationDown, annotationUp)
	case openBlock != 0:
		return fmt.Errorf("line %d: %q is never closed", openBlock, annotationStmtBegin)
	}
	return nil
}
