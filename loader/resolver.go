package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/panyam/ohscript/decl"
)

// FileResolver loads units from <Dir>/<name>.json.
type FileResolver struct {
	Dir string
}

func NewFileResolver(dir string) *FileResolver {
	return &FileResolver{Dir: dir}
}

// Path returns the file a unit name maps to.
func (r *FileResolver) Path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("unit name '%s' escapes %s", name, r.Dir)
	}
	if filepath.Ext(clean) != ".json" {
		clean += ".json"
	}
	return filepath.Join(r.Dir, clean), nil
}

func (r *FileResolver) Resolve(name string) (*decl.Script, error) {
	path, err := r.Path(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (looked in %s)", ErrUnitNotFound, name, path)
		}
		return nil, fmt.Errorf("could not open '%s': %w", path, err)
	}
	defer file.Close()
	script, err := decl.DecodeScript(file)
	if err != nil {
		return nil, fmt.Errorf("decoding '%s': %w", path, err)
	}
	return script, nil
}

// MemoryResolver serves scripts built in memory.
type MemoryResolver map[string]*decl.Script

func (m MemoryResolver) Resolve(name string) (*decl.Script, error) {
	if s, ok := m[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, name)
}
