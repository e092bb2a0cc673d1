package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

var fileTemplate = template.Must(template.New("migration").Parse(`-- Migration: {{.Name}}{{if .Rollback}} (Rollback){{end}}
-- Created: {{.Timestamp}}
-- Description: {{if .Rollback}}Rollback for {{end}}{{.Description}}

`))

// MigrationFile describes a generated up/down migration pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// MigrationInfo is one entry of the migrations directory
type MigrationInfo struct {
	Version string
	Name    string
	HasDown bool
}

// CreateMigration writes an empty up/down pair named after the current time
// (YYYYMMDDHHMMSS) so files sort in creation order. Existing files are never
// overwritten.
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	now := time.Now().UTC()
	version := now.Format("20060102150405")
	base := filepath.Join(migrationsDir, version+"_"+slug)

	mf := &MigrationFile{
		Version:     version,
		Name:        slug,
		Description: description,
		Timestamp:   now.Format(time.RFC3339),
		UpPath:      base + upSuffix,
		DownPath:    base + downSuffix,
	}

	if err := writeMigrationFile(mf.UpPath, mf, false); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := writeMigrationFile(mf.DownPath, mf, true); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}
	return mf, nil
}

func writeMigrationFile(path string, mf *MigrationFile, rollback bool) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return fileTemplate.Execute(f, struct {
		*MigrationFile
		Rollback bool
	}{mf, rollback})
}

// sanitizeName lowercases the name and joins its alphanumeric runs with underscores
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, c := range strings.ToLower(name) {
		switch {
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// ListMigrations returns the migrations found in a directory ordered by version.
// A missing directory yields an empty list.
func ListMigrations(migrationsDir string) ([]MigrationInfo, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []MigrationInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	downs := make(map[string]bool)
	ups := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch name := entry.Name(); {
		case strings.HasSuffix(name, upSuffix):
			ups = append(ups, strings.TrimSuffix(name, upSuffix))
		case strings.HasSuffix(name, downSuffix):
			downs[strings.TrimSuffix(name, downSuffix)] = true
		}
	}
	sort.Strings(ups)

	infos := make([]MigrationInfo, 0, len(ups))
	for _, base := range ups {
		version, name, _ := strings.Cut(base, "_")
		infos = append(infos, MigrationInfo{Version: version, Name: name, HasDown: downs[base]})
	}
	return infos, nil
}
