package redirect

import (
	"context"
	"errors"

	"gopkg.in/yaml.v3"
)

var (
	// ErrRead indicates a source document could not be read.
	ErrRead = errors.New("source not readable")
	// ErrParse indicates a source document is not valid YAML.
	ErrParse = errors.New("source not valid YAML")
)

// SkippedError reports part of the source tree that discovery could not read.
// Discover returns it, possibly joined with others, alongside the sources it
// did find.
type SkippedError struct {
	Path string
	Err  error
}

func (e *SkippedError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e *SkippedError) Unwrap() error { return e.Err }

// Skipped splits a Discover error into its SkippedErrors. It reports false
// when any part of err is not a SkippedError.
func Skipped(err error) ([]*SkippedError, bool) {
	if err == nil {
		return nil, false
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	out := make([]*SkippedError, 0, len(errs))
	for _, e := range errs {
		var s *SkippedError
		if !errors.As(e, &s) {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Repository is the port for discovering and reading redirect source documents.
type Repository interface {
	// Discover returns the identifiers of all candidate source documents,
	// in a stable order. Unreadable subtrees are reported as SkippedErrors
	// next to the sources that were found.
	Discover(ctx context.Context) ([]string, error)

	// ReadDocument reads and parses one source document.
	// Errors wrap ErrRead or ErrParse.
	ReadDocument(ctx context.Context, file string) (*yaml.Node, error)
}
