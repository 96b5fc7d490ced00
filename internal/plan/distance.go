package plan

import (
	"math"

	"carpool/internal/model"
)

// DistanceTable is a sparse directed area-to-area cost lookup. It need not
// be symmetric and may be missing edges entirely.
type DistanceTable map[string]map[string]float64

// Lookup returns the cost of the directed edge from -> to.
func (t DistanceTable) Lookup(from, to string) (float64, bool) {
	row, ok := t[from]
	if !ok {
		return 0, false
	}
	cost, ok := row[to]
	return cost, ok
}

// Add records a directed edge. Negative and non-finite costs are dropped:
// the contract is nonnegative, and coercing bad values to zero would make a
// hop look free.
func (t DistanceTable) Add(from, to string, cost float64) {
	if cost < 0 || math.IsNaN(cost) || math.IsInf(cost, 0) {
		return
	}
	row, ok := t[from]
	if !ok {
		row = map[string]float64{}
		t[from] = row
	}
	row[to] = cost
}

// Edges flattens the table in no particular order, for persistence.
func (t DistanceTable) Edges() []model.DistanceEdge {
	out := make([]model.DistanceEdge, 0, len(t))
	for from, row := range t {
		for to, cost := range row {
			out = append(out, model.DistanceEdge{From: from, To: to, Cost: cost})
		}
	}
	return out
}

// TableFromEdges builds a DistanceTable from flat entries.
func TableFromEdges(edges []model.DistanceEdge) DistanceTable {
	t := DistanceTable{}
	for _, e := range edges {
		t.Add(e.From, e.To, e.Cost)
	}
	return t
}

// DecodeDistances converts an untyped origin -> destination -> value
// mapping, as produced by JSON or YAML decoding, into a DistanceTable.
// Non-numeric values are treated as missing edges, never as zero.
func DecodeDistances(raw map[string]map[string]any) DistanceTable {
	t := DistanceTable{}
	for from, row := range raw {
		for to, v := range row {
			if cost, ok := asFloat(v); ok {
				t.Add(from, to, cost)
			}
		}
	}
	return t
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
