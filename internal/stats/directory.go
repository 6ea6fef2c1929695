package stats

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/covid-stats-bot/internal/common"
)

//go:embed regions.yaml
var defaultRegions []byte

// directoryEntry is one record of the directory file.
type directoryEntry struct {
	Name    string   `yaml:"name" validate:"required"`
	Code    string   `yaml:"code" validate:"required"`
	Aliases []string `yaml:"aliases" validate:"required,min=1,dive,required"`
}

// Directory maps normalized place aliases to regions served by the regional API.
// It is immutable once loaded and safe for concurrent use.
type Directory struct {
	byAlias map[string]Place
	entries int
}

// DefaultDirectory loads the directory bundled with the binary.
func DefaultDirectory() (*Directory, error) {
	return ParseDirectory(defaultRegions)
}

// LoadDirectory reads a directory file from disk. An empty path selects the bundled
// directory.
func LoadDirectory(path string) (*Directory, error) {
	if path == "" {
		return DefaultDirectory()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", path, err)
	}
	return ParseDirectory(data)
}

// ParseDirectory builds a Directory from YAML. An alias claimed by two different
// entries is an error.
func ParseDirectory(data []byte) (*Directory, error) {
	var raw []directoryEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse directory: %w", err)
	}

	d := &Directory{byAlias: make(map[string]Place)}
	for i, e := range raw {
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("directory entry %d: %w", i, err)
		}
		place := Place{Name: e.Name, Code: e.Code, Qualified: true}
		for _, alias := range e.Aliases {
			key := common.Normalize(alias)
			if prev, ok := d.byAlias[key]; ok && prev != place {
				return nil, fmt.Errorf("directory alias %q bound to both %s and %s", alias, prev.Code, place.Code)
			}
			d.byAlias[key] = place
		}
		d.entries++
	}
	return d, nil
}

// Lookup resolves a place query. The boolean is false for unknown input.
func (d *Directory) Lookup(text string) (Place, bool) {
	if d == nil {
		return Place{}, false
	}
	p, ok := d.byAlias[common.Normalize(text)]
	return p, ok
}

// Len returns the number of regions in the directory.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return d.entries
}

// Places lists every distinct region once, in no particular order.
func (d *Directory) Places() []Place {
	if d == nil {
		return nil
	}
	seen := make(map[Place]struct{}, d.entries)
	out := make([]Place, 0, d.entries)
	for _, p := range d.byAlias {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
