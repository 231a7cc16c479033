// File: internal/artifacts/store.go
package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/dashverify/internal/verify"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultReportDir = "verification/runs"

// Store writes run artifacts under a root directory. Relative paths are
// resolved against the root; absolute paths are used as-is.
type Store struct {
	root      string
	reportDir string
}

// Option configures a Store.
type Option func(*Store)

// WithReportDir sets where run reports go, relative to the root.
func WithReportDir(dir string) Option {
	return func(s *Store) {
		if strings.TrimSpace(dir) != "" {
			s.reportDir = dir
		}
	}
}

// NewStore creates a Store rooted at root ("" means the working directory).
// A leading "~" is expanded to the user's home directory.
func NewStore(root string, opts ...Option) *Store {
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	if expanded, err := homedir.Expand(root); err == nil {
		root = expanded
	}
	s := &Store{root: root, reportDir: defaultReportDir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ verify.ArtifactWriter = (*Store)(nil)

// Resolve maps an artifact path to its location on disk.
func (s *Store) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.root, path)
}

// WriteScreenshot replaces the file at path with png and returns the resolved path.
func (s *Store) WriteScreenshot(path string, png []byte) (string, error) {
	if len(png) == 0 {
		return "", errors.New("artifacts: empty screenshot")
	}
	full := s.Resolve(path)
	if err := writeFileAtomic(full, png); err != nil {
		return "", err
	}
	return full, nil
}

// Remove deletes the artifact at path. A missing file is not an error.
func (s *Store) Remove(path string) error {
	err := os.Remove(s.Resolve(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("artifacts: remove %s: %w", path, err)
	}
	return nil
}

// SaveRun writes result as <report_dir>/<script>.json, replacing the previous report.
func (s *Store) SaveRun(result *verify.Result) (string, error) {
	if result == nil || result.Script == "" {
		return "", errors.New("artifacts: result has no script name")
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("artifacts: encode run report: %w", err)
	}
	full := s.Resolve(filepath.Join(s.reportDir, sanitize(result.Script)+".json"))
	if err := writeFileAtomic(full, append(data, '\n')); err != nil {
		return "", err
	}
	return full, nil
}

// LoadRun reads back the last report saved for script.
func (s *Store) LoadRun(script string) (*verify.Result, error) {
	full := s.Resolve(filepath.Join(s.reportDir, sanitize(script)+".json"))
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("artifacts: read run report: %w", err)
	}
	var result verify.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("artifacts: decode run report %s: %w", full, err)
	}
	return &result, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifacts: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("artifacts: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("artifacts: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifacts: close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifacts: chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifacts: replace %s: %w", path, err)
	}
	return nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
