// Package guides serves the static cultivation guide content. Guides are
// authored YAML compiled into the binary, so the registry is immutable after
// startup and lookups never touch the database.
package guides

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"agridash/internal/types"
)

//go:embed content.yaml
var rawContent []byte

type contentFile struct {
	Guides []types.Guide `yaml:"guides"`
}

// Registry holds the loaded guides indexed by crop.
type Registry struct {
	ordered []types.Guide
	byCrop  map[types.Crop]types.Guide
}

// NewRegistry parses the embedded content. An error here is a build problem
// (malformed authored YAML), so callers should treat it as fatal.
func NewRegistry() (*Registry, error) {
	return newRegistryFromBytes(rawContent)
}

func newRegistryFromBytes(data []byte) (*Registry, error) {
	var file contentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing guide content: %w", err)
	}
	if len(file.Guides) == 0 {
		return nil, fmt.Errorf("guide content is empty")
	}

	byCrop := make(map[types.Crop]types.Guide, len(file.Guides))
	for _, g := range file.Guides {
		if g.Crop == "" || g.Title == "" {
			return nil, fmt.Errorf("guide entry missing crop or title")
		}
		if _, exists := byCrop[g.Crop]; exists {
			return nil, fmt.Errorf("duplicate guide for crop %q", g.Crop)
		}
		byCrop[g.Crop] = g
	}
	return &Registry{ordered: file.Guides, byCrop: byCrop}, nil
}

// List returns all guides in authored order.
func (r *Registry) List() []types.Guide {
	out := make([]types.Guide, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ByCrop returns the guide for a crop, or a not-found AppError when none
// exists.
func (r *Registry) ByCrop(crop types.Crop) (types.Guide, error) {
	g, ok := r.byCrop[crop]
	if !ok {
		return types.Guide{}, types.NewAppError(
			types.ErrCodeNotFoundGuide,
			fmt.Sprintf("no guide available for crop %q", crop),
			nil,
		)
	}
	return g, nil
}
