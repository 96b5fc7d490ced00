package plan

import (
	"reflect"
	"testing"

	"carpool/internal/model"
)

func TestMergeAreasAppendsWithoutDuplicates(t *testing.T) {
	base := []model.Area{
		{Name: "north", Members: []string{"ann", "ben"}},
		{Name: "south", Members: []string{"cara"}},
	}
	override := []model.Area{
		{Name: "north", Members: []string{"ben", "dana"}},
		{Name: "east", Members: []string{"eli", "eli"}},
	}
	got := MergeAreas(base, override)
	want := []model.Area{
		{Name: "north", Members: []string{"ann", "ben", "dana"}},
		{Name: "south", Members: []string{"cara"}},
		{Name: "east", Members: []string{"eli"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("merge mismatch: got %+v want %+v", got, want)
	}
}

func TestAreaIndexFirstDeclarationWins(t *testing.T) {
	areas := []model.Area{
		{Name: "north", Members: []string{"ann"}},
		{Name: "south", Members: []string{"ann", "ben"}},
	}
	ix := NewAreaIndex(areas)
	if area, ok := ix.AreaOf("ann"); !ok || area != "north" {
		t.Fatalf("ann: got %q %v, want north", area, ok)
	}
	if area, ok := ix.AreaOf("ben"); !ok || area != "south" {
		t.Fatalf("ben: got %q %v, want south", area, ok)
	}
	if _, ok := ix.AreaOf("ghost"); ok {
		t.Fatal("unknown kid should not resolve")
	}
}
