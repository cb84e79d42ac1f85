package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrScriptRead indicates the target script could not be read.
	ErrScriptRead = errors.New("script not readable")
	// ErrScriptWrite indicates the target script could not be written.
	ErrScriptWrite = errors.New("script not writable")
)

// ScriptFile is the external file the encoded redirect list is spliced into.
type ScriptFile struct {
	path string
}

// NewScriptFile creates a handle for the script at path.
func NewScriptFile(path string) *ScriptFile {
	return &ScriptFile{path: path}
}

// Path returns the script path as given.
func (s *ScriptFile) Path() string {
	return s.path
}

// Read returns the current script content.
func (s *ScriptFile) Read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptRead, err)
	}
	return data, nil
}

// Write replaces the script content atomically, keeping the file mode.
func (s *ScriptFile) Write(content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := atomicWriteFile(s.path, content, mode); err != nil {
		return fmt.Errorf("%w: %w", ErrScriptWrite, err)
	}
	return nil
}

// atomicWriteFile writes content to a temp file then renames it to the target path.
func atomicWriteFile(target string, content []byte, mode os.FileMode) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".redirectlint-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
