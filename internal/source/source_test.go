package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"carpool/internal/model"
	"carpool/internal/plan"
)

type stubAreas struct {
	areas []model.Area
	err   error
	delay time.Duration
}

func (s *stubAreas) FetchAreas(ctx context.Context) ([]model.Area, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.areas, s.err
}

type stubDistances struct {
	table plan.DistanceTable
	err   error
}

func (s *stubDistances) FetchDistances(ctx context.Context) (plan.DistanceTable, error) {
	return s.table, s.err
}

func TestLoadReturnsBothSources(t *testing.T) {
	table := plan.DistanceTable{}
	table.Add("a", "b", 1)
	areas, got, err := Load(context.Background(),
		&stubAreas{areas: []model.Area{{Name: "n", Members: []string{"a"}}}},
		&stubDistances{table: table})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(areas) != 1 || areas[0].Name != "n" {
		t.Fatalf("areas: %v", areas)
	}
	if _, ok := got.Lookup("a", "b"); !ok {
		t.Fatal("table missing edge")
	}
}

func TestLoadFailsFastOnEitherError(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := Load(context.Background(),
		&stubAreas{err: boom},
		&stubDistances{table: plan.DistanceTable{}})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}

	_, _, err = Load(context.Background(),
		&stubAreas{areas: nil, delay: 5 * time.Millisecond},
		&stubDistances{err: boom})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestParseAreasYAMLKeepsDocumentOrder(t *testing.T) {
	doc := []byte("zeta:\n  - zoe\nalpha:\n  - ann\n  - ben\n")
	areas, err := ParseAreasYAML(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(areas) != 2 || areas[0].Name != "zeta" || areas[1].Name != "alpha" {
		t.Fatalf("order not preserved: %v", areas)
	}
	if len(areas[1].Members) != 2 || areas[1].Members[0] != "ann" {
		t.Fatalf("members: %v", areas[1].Members)
	}
}

func TestParseAreasYAMLRejectsNonMapping(t *testing.T) {
	if _, err := ParseAreasYAML([]byte("- just\n- a list\n")); err == nil {
		t.Fatal("expected an error for a non-mapping document")
	}
}

func TestFileDistanceSourceDropsMalformedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "distances.json")
	body := `{"depot":{"north":2,"south":"oops","east":-3},"north":{"south":5}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	src := &FileDistanceSource{Path: path}
	table, err := src.FetchDistances(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if d, ok := table.Lookup("depot", "north"); !ok || d != 2 {
		t.Fatalf("depot->north: %v %v", d, ok)
	}
	if _, ok := table.Lookup("depot", "south"); ok {
		t.Fatal("malformed value must not become an edge")
	}
	if _, ok := table.Lookup("depot", "east"); ok {
		t.Fatal("negative value must not become an edge")
	}
}

func TestFileAreaSourceMissingFile(t *testing.T) {
	src := &FileAreaSource{Path: filepath.Join(t.TempDir(), "nope.yaml")}
	if _, err := src.FetchAreas(context.Background()); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
