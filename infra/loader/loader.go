// Package loader reads instance files from disk.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/evsched/core/model"
)

// ErrInstanceNotFound is returned when the instance file does not exist.
var ErrInstanceNotFound = model.ErrInstanceNotFound

// DefaultPattern names the numbered instance files.
const DefaultPattern = "test_system_%d.json"

// LoadInstance loads an instance from a JSON or YAML file.
func LoadInstance(path string) (*model.Instance, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		format = "json"
	}
	inst, err := DecodeInstance(f, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return inst, nil
}

// DecodeInstance reads from r to decode an Instance.
func DecodeInstance(r io.Reader, format string) (*model.Instance, error) {
	var inst model.Instance
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&inst); err != nil {
			return nil, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&inst); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return &inst, nil
}

// DirSource resolves instance names inside a directory.
type DirSource struct {
	Dir     string
	Pattern string
}

// NewDirSource returns a source rooted at dir using pattern for numbered
// instances. An empty pattern uses DefaultPattern.
func NewDirSource(dir, pattern string) *DirSource {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &DirSource{Dir: dir, Pattern: pattern}
}

// Name returns the file name of instance n.
func (s *DirSource) Name(n int) string {
	return fmt.Sprintf(s.Pattern, n)
}

// Load reads the named instance file.
func (s *DirSource) Load(ctx context.Context, name string) (*model.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadInstance(filepath.Join(s.Dir, name))
}
