package plan

import (
	"testing"

	"carpool/internal/model"
)

func TestDecodeDistancesSkipsMalformedValues(t *testing.T) {
	raw := map[string]map[string]any{
		"depot": {"north": 2.5, "south": "far", "east": nil, "west": -1.0},
		"north": {"south": 5},
	}
	table := DecodeDistances(raw)

	if d, ok := table.Lookup("depot", "north"); !ok || d != 2.5 {
		t.Fatalf("depot->north: got %v %v", d, ok)
	}
	if d, ok := table.Lookup("north", "south"); !ok || d != 5 {
		t.Fatalf("north->south: got %v %v", d, ok)
	}
	// Malformed and negative values must read as missing edges, not zero.
	for _, to := range []string{"south", "east", "west"} {
		if _, ok := table.Lookup("depot", to); ok {
			t.Fatalf("depot->%s should be missing", to)
		}
	}
}

func TestDistanceTableAsymmetry(t *testing.T) {
	table := DistanceTable{}
	table.Add("a", "b", 3)
	table.Add("b", "a", 7)
	ab, _ := table.Lookup("a", "b")
	ba, _ := table.Lookup("b", "a")
	if ab == ba {
		t.Fatal("table should hold directed costs independently")
	}
	if _, ok := table.Lookup("a", "c"); ok {
		t.Fatal("missing destination should not resolve")
	}
}

func TestTableFromEdgesRoundTrip(t *testing.T) {
	table := TableFromEdges([]model.DistanceEdge{
		{From: "a", To: "b", Cost: 1},
		{From: "b", To: "c", Cost: 2},
	})
	if len(table.Edges()) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(table.Edges()))
	}
	if d, ok := table.Lookup("b", "c"); !ok || d != 2 {
		t.Fatalf("b->c: got %v %v", d, ok)
	}
}
