package plan

import (
	"reflect"
	"testing"

	"carpool/internal/model"
)

func TestAllocateKidDriverScenario(t *testing.T) {
	// k1 drives themselves (kid-driver); k2 lives in a different area and
	// is picked up by the nearest-neighbor pass via depot->B.
	areas := []model.Area{
		{Name: "A", Members: []string{"k1"}},
		{Name: "B", Members: []string{"k2"}},
	}
	table := DistanceTable{}
	table.Add("D", "A", 2)
	table.Add("A", "B", 5)
	table.Add("D", "B", 3)
	table.Add("B", "A", 5)

	p := New(areas, table, "D")
	res := p.Plan([]string{"k1", "k2"}, []model.Driver{{Name: "k1", Seats: 2, IsParent: false}})

	if !reflect.DeepEqual(res.RideAssignments["k1"], []string{"k2"}) {
		t.Fatalf("k1 assignment: got %v, want [k2]", res.RideAssignments["k1"])
	}
	if len(res.Unassigned) != 0 {
		t.Fatalf("unassigned: got %v, want none", res.Unassigned)
	}
}

func TestAllocateParentSeatsOwnKidFirst(t *testing.T) {
	areas := []model.Area{
		{Name: "north", Members: []string{"pam", "ann", "ben"}},
	}
	table := DistanceTable{}
	table.Add("depot", "north", 1)

	p := New(areas, table, "depot")
	res := p.Plan([]string{"ann", "pam", "ben"}, []model.Driver{{Name: "pam", Seats: 3, IsParent: true}})

	got := res.RideAssignments["pam"]
	if len(got) == 0 || got[0] != "pam" {
		t.Fatalf("parent's own kid must sit at position 0, got %v", got)
	}
	// Same-area fill takes ann then ben in present order.
	if !reflect.DeepEqual(got, []string{"pam", "ann", "ben"}) {
		t.Fatalf("got %v, want [pam ann ben]", got)
	}
}

func TestAllocateParentWithZeroSeats(t *testing.T) {
	areas := []model.Area{{Name: "north", Members: []string{"pam"}}}
	p := New(areas, DistanceTable{}, "depot")
	res := p.Plan([]string{"pam"}, []model.Driver{{Name: "pam", Seats: 0, IsParent: true}})

	if len(res.RideAssignments["pam"]) != 0 {
		t.Fatalf("zero-seat parent must not seat anyone, got %v", res.RideAssignments["pam"])
	}
	if !reflect.DeepEqual(res.Unassigned, []string{"pam"}) {
		t.Fatalf("kid should be unassigned, got %v", res.Unassigned)
	}
}

func TestAllocateKidDriverNeverRides(t *testing.T) {
	areas := []model.Area{
		{Name: "north", Members: []string{"ann", "ben"}},
	}
	table := DistanceTable{}
	table.Add("depot", "north", 1)
	table.Add("north", "north", 1)

	p := New(areas, table, "depot")
	drivers := []model.Driver{
		{Name: "ann", Seats: 4, IsParent: false},
		{Name: "pam", Seats: 4, IsParent: true},
	}
	res := p.Plan([]string{"ann", "ben"}, drivers)

	for name, list := range res.RideAssignments {
		for _, kid := range list {
			if kid == "ann" {
				t.Fatalf("kid-driver ann appeared in %s's list: %v", name, list)
			}
		}
	}
	if !reflect.DeepEqual(res.RideAssignments["ann"], []string{"ben"}) {
		t.Fatalf("ann should still drive ben, got %v", res.RideAssignments["ann"])
	}
}

func TestAllocateNearestNeighborOrderAndTieBreak(t *testing.T) {
	areas := []model.Area{
		{Name: "far", Members: []string{"fay"}},
		{Name: "near", Members: []string{"ned", "nia"}},
		{Name: "mid", Members: []string{"moe"}},
	}
	table := DistanceTable{}
	table.Add("depot", "far", 9)
	table.Add("depot", "near", 1)
	table.Add("depot", "mid", 4)
	table.Add("near", "near", 0.5)
	table.Add("near", "mid", 2)
	table.Add("near", "far", 8)
	table.Add("mid", "far", 3)

	p := New(areas, table, "depot")
	res := p.Plan([]string{"fay", "ned", "nia", "moe"}, []model.Driver{{Name: "drv", Seats: 4, IsParent: false}})

	// Walk: depot->near picks ned (tie with nia broken by present order),
	// near->near picks nia, near->mid picks moe, mid->far picks fay.
	want := []string{"ned", "nia", "moe", "fay"}
	if !reflect.DeepEqual(res.RideAssignments["drv"], want) {
		t.Fatalf("got %v, want %v", res.RideAssignments["drv"], want)
	}
}

func TestAllocateStopsWhenNoEdgeDefined(t *testing.T) {
	areas := []model.Area{
		{Name: "island", Members: []string{"izzy"}},
		{Name: "near", Members: []string{"ned"}},
	}
	table := DistanceTable{}
	table.Add("depot", "near", 1)
	// No edge reaches island from anywhere.

	p := New(areas, table, "depot")
	res := p.Plan([]string{"izzy", "ned"}, []model.Driver{{Name: "drv", Seats: 3, IsParent: false}})

	if !reflect.DeepEqual(res.RideAssignments["drv"], []string{"ned"}) {
		t.Fatalf("got %v, want [ned]", res.RideAssignments["drv"])
	}
	if !reflect.DeepEqual(res.Unassigned, []string{"izzy"}) {
		t.Fatalf("unreachable kid must stay unassigned in order, got %v", res.Unassigned)
	}
}

func TestAllocatePartitionInvariants(t *testing.T) {
	areas := []model.Area{
		{Name: "north", Members: []string{"ann", "ben", "pam"}},
		{Name: "south", Members: []string{"cara", "dan"}},
	}
	table := DistanceTable{}
	table.Add("depot", "north", 2)
	table.Add("depot", "south", 3)
	table.Add("north", "south", 1)
	table.Add("south", "north", 1)

	present := []string{"ann", "ben", "cara", "dan", "pam"}
	drivers := []model.Driver{
		{Name: "pam", Seats: 2, IsParent: true},
		{Name: "sam", Seats: 1, IsParent: false},
	}
	p := New(areas, table, "depot")
	res := p.Plan(present, drivers)

	seen := map[string]int{}
	for _, d := range drivers {
		list := res.RideAssignments[d.Name]
		if len(list) > d.Seats {
			t.Fatalf("driver %s over capacity: %v", d.Name, list)
		}
		for _, kid := range list {
			seen[kid]++
		}
	}
	for _, kid := range res.Unassigned {
		seen[kid]++
	}
	for _, kid := range present {
		if seen[kid] != 1 {
			t.Fatalf("kid %s seen %d times, want exactly 1", kid, seen[kid])
		}
	}
}
