// Package loader reads and writes tree files.
//
// A tree file holds either a nested tree (a list of nodes with children) or
// a flat list (nodes carrying parentId and depth). JSON and YAML are both
// accepted; the format is chosen by file extension.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/vanderheijden86/dndtree/pkg/model"
	"github.com/vanderheijden86/dndtree/pkg/tree"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for paths whose extension is not a known
// tree format.
var ErrUnsupportedFormat = errors.New("unsupported tree format")

// Format is a serialisation format for tree files.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ParseFormat accepts a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

func decode(r io.Reader, f Format, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	switch f {
	case FormatJSON:
		return json.Unmarshal(data, v)
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

func encode(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// ReadTree decodes a nested tree and validates it.
func ReadTree(r io.Reader, f Format) ([]model.TreeNode, error) {
	var roots []model.TreeNode
	if err := decode(r, f, &roots); err != nil {
		return nil, fmt.Errorf("decoding tree: %w", err)
	}
	if err := tree.ValidateTree(roots); err != nil {
		return nil, err
	}
	return roots, nil
}

// WriteTree encodes roots.
func WriteTree(w io.Writer, f Format, roots []model.TreeNode) error {
	if roots == nil {
		roots = []model.TreeNode{}
	}
	return encode(w, f, roots)
}

// ReadFlat decodes a flat list, links parent indexes and validates it.
func ReadFlat(r io.Reader, f Format) (model.FlatList, error) {
	var flat model.FlatList
	if err := decode(r, f, &flat); err != nil {
		return nil, fmt.Errorf("decoding flat list: %w", err)
	}
	flat = flat.Relink()
	if err := tree.Validate(flat); err != nil {
		return nil, err
	}
	return flat, nil
}

// WriteFlat encodes flat. Nodes are written without their nested children.
func WriteFlat(w io.Writer, f Format, flat model.FlatList) error {
	if flat == nil {
		flat = model.FlatList{}
	}
	return encode(w, f, flat)
}

// LoadTree reads a nested tree file.
func LoadTree(path string) ([]model.TreeNode, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	roots, err := ReadTree(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return roots, nil
}

// LoadTreeUnchecked reads a nested tree file without validating it.
func LoadTreeUnchecked(path string) ([]model.TreeNode, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var roots []model.TreeNode
	if err := decode(file, f, &roots); err != nil {
		return nil, fmt.Errorf("%s: decoding tree: %w", path, err)
	}
	return roots, nil
}

// LoadFlat reads a flat list file.
func LoadFlat(path string) (model.FlatList, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	flat, err := ReadFlat(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return flat, nil
}

// SaveTree writes roots to path atomically: the data goes to a temp file in
// the same directory which is then renamed over path.
func SaveTree(path string, roots []model.TreeNode) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteTree(&buf, f, roots); err != nil {
		return fmt.Errorf("encoding tree: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
