package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"carpool/internal/model"
	"carpool/internal/plan"
)

// FileAreaSource reads area membership from a YAML document of the form
//
//	north:
//	  - ann
//	  - ben
//	south:
//	  - cara
//
// Document order is preserved so that the duplicate-ownership tie-break is
// reproducible, which is why this decodes through yaml.Node instead of a map.
type FileAreaSource struct {
	Path string
}

func (s *FileAreaSource) FetchAreas(ctx context.Context) ([]model.Area, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	return ParseAreasYAML(data)
}

// ParseAreasYAML decodes an ordered area->members document.
func ParseAreasYAML(data []byte) ([]model.Area, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return []model.Area{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("area file: expected a mapping at the top level")
	}
	out := make([]model.Area, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		var members []string
		if err := root.Content[i+1].Decode(&members); err != nil {
			return nil, fmt.Errorf("area %q: %w", name, err)
		}
		out = append(out, model.Area{Name: name, Members: members})
	}
	return out, nil
}

// FileDistanceSource reads a JSON document of the form
// {"origin": {"destination": cost, ...}, ...}. Non-numeric and negative
// values are dropped at decode time rather than rejected, matching the
// planner's no-known-edge policy.
type FileDistanceSource struct {
	Path string
}

func (s *FileDistanceSource) FetchDistances(ctx context.Context) (plan.DistanceTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return plan.DecodeDistances(raw), nil
}
