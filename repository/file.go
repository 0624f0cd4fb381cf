package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mohammad-safakhou/horizon/models"
)

// fileArtifactRepository keeps <slug>_dr.md and <slug>_parsed.json in one directory
type fileArtifactRepository struct {
	dir string
}

func NewFileArtifactRepository(dir string) *fileArtifactRepository {
	return &fileArtifactRepository{dir: dir}
}

// Paths returns the report and parsed-research file of slug.
func (r *fileArtifactRepository) Paths(slug string) (report, parsed string) {
	return filepath.Join(r.dir, slug+"_dr.md"), filepath.Join(r.dir, slug+"_parsed.json")
}

// LoadArtifacts reads both files independently; an unreadable file is
// treated as absent.
func (r *fileArtifactRepository) LoadArtifacts(_ context.Context, slug string) (models.Artifacts, error) {
	var out models.Artifacts
	reportPath, parsedPath := r.Paths(slug)

	if b, err := os.ReadFile(reportPath); err == nil {
		s := string(b)
		out.Report = &s
	}
	if b, err := os.ReadFile(parsedPath); err == nil {
		var parsed models.ParsedResearch
		if json.Unmarshal(b, &parsed) == nil {
			out.Parsed = &parsed
		}
	}
	if out.Report == nil && out.Parsed == nil {
		return out, models.ErrArtifactNotFound
	}
	return out, nil
}

func (r *fileArtifactRepository) SaveArtifacts(_ context.Context, slug string, a models.Artifacts) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	reportPath, parsedPath := r.Paths(slug)
	var errs []error
	if a.Report != nil {
		errs = append(errs, os.WriteFile(reportPath, []byte(*a.Report), 0o644))
	}
	if a.Parsed != nil {
		data, err := json.MarshalIndent(a.Parsed, "", "  ")
		if err == nil {
			err = os.WriteFile(parsedPath, data, 0o644)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *fileArtifactRepository) DeleteArtifacts(_ context.Context, slug string) error {
	reportPath, parsedPath := r.Paths(slug)
	var errs []error
	for _, p := range []string{reportPath, parsedPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
