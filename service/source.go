package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Candidate is a report file a project row may resolve to.
type Candidate struct {
	// Name is the file name compared against the requested one.
	Name string `json:"name"`
	// Key identifies the report within its source.
	Key string `json:"key"`
}

// ReportSource lists and opens report PDFs.
type ReportSource interface {
	// Candidates returns the reports a company's rows may match, in listing order.
	// It returns ErrFolderNotFound when the company scope is missing or empty.
	Candidates(ctx context.Context, company string) ([]Candidate, error)
	// Open streams the report stored under key. The caller must close it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Reports lists the keys of every PDF the source holds.
	Reports(ctx context.Context) ([]string, error)
	Name() string
}

func isPDF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// LocalSource reads reports laid out as <root>/<company>/<finalDir>/<file>.
type LocalSource struct {
	root     string
	finalDir string
}

func NewLocalSource(root, finalDir string) *LocalSource {
	if finalDir == "" {
		finalDir = "FINAL"
	}
	return &LocalSource{root: root, finalDir: finalDir}
}

func (s *LocalSource) Name() string { return "local" }

// Candidates lists the regular files of the company's final folder, sorted by name.
func (s *LocalSource) Candidates(ctx context.Context, company string) ([]Candidate, error) {
	if company == "" || !filepath.IsLocal(company) {
		return nil, ErrFolderNotFound
	}

	dir := filepath.Join(s.root, company, s.finalDir)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, ErrFolderNotFound
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var out []Candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, Candidate{
			Name: e.Name(),
			Key:  path.Join(filepath.ToSlash(company), s.finalDir, e.Name()),
		})
	}
	if len(out) == 0 {
		return nil, ErrFolderNotFound
	}
	return out, nil
}

func (s *LocalSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("invalid report key %q", key)
	}
	return os.Open(filepath.Join(s.root, rel))
}

// Reports lists every PDF below a company final folder.
func (s *LocalSource) Reports(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isPDF(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) == 3 && parts[1] == s.finalDir {
			keys = append(keys, strings.Join(parts, "/"))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to walk %s: %w", s.root, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// blobCandidates turns a flat list of object keys into the candidate pool shared by
// every company: only PDFs are kept and names are compared without the key prefix.
func blobCandidates(keys []string) ([]Candidate, error) {
	var out []Candidate
	for _, k := range keys {
		if !isPDF(k) {
			continue
		}
		out = append(out, Candidate{Name: path.Base(k), Key: k})
	}
	if len(out) == 0 {
		return nil, ErrFolderNotFound
	}
	return out, nil
}

func filterPDFKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if isPDF(k) {
			out = append(out, k)
		}
	}
	return out
}
