package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sophialabs/redirectlint/internal/domain/redirect"
)

var _ redirect.Repository = (*YAMLRepository)(nil)

// Options controls source discovery.
type Options struct {
	// Recursive descends into subdirectories. Hidden directories are always skipped.
	Recursive bool
	// Exclude lists base-name glob patterns of files that are never sources.
	Exclude []string
}

// YAMLRepository discovers and parses redirect lists stored as YAML files.
type YAMLRepository struct {
	rootDir string
	opts    Options
}

// NewYAMLRepository creates a repository rooted at rootDir.
func NewYAMLRepository(rootDir string, opts Options) (*YAMLRepository, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	for _, pattern := range opts.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}
	return &YAMLRepository{rootDir: absRoot, opts: opts}, nil
}

// Root returns the absolute root directory.
func (r *YAMLRepository) Root() string {
	return r.rootDir
}

// Discover walks the root directory for .yaml/.yml files and returns their
// slash-separated paths relative to the root, in lexical order.
func (r *YAMLRepository) Discover(ctx context.Context) ([]string, error) {
	var (
		files   []string
		skipped []error
	)

	err := filepath.WalkDir(r.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == r.rootDir {
				return err
			}
			rel, relErr := filepath.Rel(r.rootDir, path)
			if relErr != nil {
				rel = path
			}
			skipped = append(skipped, &redirect.SkippedError{Path: filepath.ToSlash(rel), Err: err})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path == r.rootDir {
				return nil
			}
			if !r.opts.Recursive || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsYAMLFile(path) || r.excluded(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(r.rootDir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk redirects directory: %w", err)
	}

	return files, errors.Join(skipped...)
}

// IsSource reports whether a file at path would be discovered as a source.
func (r *YAMLRepository) IsSource(path string) bool {
	return IsYAMLFile(path) && !r.excluded(filepath.Base(path))
}

func (r *YAMLRepository) excluded(name string) bool {
	for _, pattern := range r.opts.Exclude {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// ReadDocument reads and parses one source file. It returns the document's
// top-level node, or nil for an empty document. Files holding more than one
// YAML document are rejected.
func (r *YAMLRepository) ReadDocument(_ context.Context, file string) (*yaml.Node, error) {
	data, err := os.ReadFile(filepath.Join(r.rootDir, filepath.FromSlash(file)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", redirect.ErrRead, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", redirect.ErrParse, err)
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", redirect.ErrParse, err)
		}
		return nil, fmt.Errorf("%w: file contains multiple YAML documents", redirect.ErrParse)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

// IsYAMLFile reports whether name has a .yaml or .yml extension.
func IsYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
