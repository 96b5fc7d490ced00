package plan

import "carpool/internal/model"

// MergeAreas overlays override membership onto the persisted base. Base
// areas keep their declaration order; override members are appended to the
// matching area without duplicating names already present, and override
// areas unknown to the base are appended after it. The result is an ordered
// slice so that everything downstream is reproducible.
func MergeAreas(base, override []model.Area) []model.Area {
	out := make([]model.Area, 0, len(base)+len(override))
	pos := map[string]int{}
	for _, a := range base {
		pos[a.Name] = len(out)
		out = append(out, model.Area{Name: a.Name, Members: dedup(a.Members)})
	}
	for _, a := range override {
		i, ok := pos[a.Name]
		if !ok {
			pos[a.Name] = len(out)
			out = append(out, model.Area{Name: a.Name, Members: dedup(a.Members)})
			continue
		}
		seen := map[string]struct{}{}
		for _, m := range out[i].Members {
			seen[m] = struct{}{}
		}
		for _, m := range a.Members {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out[i].Members = append(out[i].Members, m)
		}
	}
	return out
}

func dedup(names []string) []string {
	out := make([]string, 0, len(names))
	seen := map[string]struct{}{}
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// AreaIndex resolves a kid name to its owning area in O(1).
type AreaIndex struct {
	byKid map[string]string
}

// NewAreaIndex inverts the ordered membership list. When a kid appears in
// more than one area the first declaration wins; later ones are ignored.
func NewAreaIndex(areas []model.Area) *AreaIndex {
	ix := &AreaIndex{byKid: make(map[string]string)}
	for _, a := range areas {
		for _, kid := range a.Members {
			if _, taken := ix.byKid[kid]; !taken {
				ix.byKid[kid] = a.Name
			}
		}
	}
	return ix
}

// AreaOf returns the area a kid belongs to, if any.
func (ix *AreaIndex) AreaOf(kid string) (string, bool) {
	area, ok := ix.byKid[kid]
	return area, ok
}
