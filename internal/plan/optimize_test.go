package plan

import (
	"reflect"
	"testing"

	"carpool/internal/model"
)

// swapFixture builds two one-seat drivers whose initial assignment is
// strictly improved by exchanging their passengers.
func swapFixture() (*CostEvaluator, []model.Driver, map[string][]string) {
	areas := []model.Area{
		{Name: "a1", Members: []string{"p1"}},
		{Name: "a2", Members: []string{"p2"}},
		{Name: "ha", Members: []string{"dA"}},
		{Name: "hb", Members: []string{"dB"}},
	}
	table := DistanceTable{}
	table.Add("depot", "a1", 5)
	table.Add("depot", "a2", 5)
	table.Add("a1", "ha", 10)
	table.Add("a2", "ha", 1)
	table.Add("a1", "hb", 1)
	table.Add("a2", "hb", 10)

	eval := &CostEvaluator{Index: NewAreaIndex(areas), Table: table, Depot: "depot"}
	drivers := []model.Driver{
		{Name: "dA", Seats: 1, IsParent: false},
		{Name: "dB", Seats: 1, IsParent: false},
	}
	asg := map[string][]string{"dA": {"p1"}, "dB": {"p2"}}
	return eval, drivers, asg
}

func TestOptimizePerformsSingleImprovingSwap(t *testing.T) {
	eval, drivers, asg := swapFixture()
	opt := &Optimizer{Eval: eval}

	swaps := opt.Optimize(drivers, asg)
	if swaps != 1 {
		t.Fatalf("swaps: got %d, want 1", swaps)
	}
	if !reflect.DeepEqual(asg["dA"], []string{"p2"}) || !reflect.DeepEqual(asg["dB"], []string{"p1"}) {
		t.Fatalf("expected exchanged passengers, got %v", asg)
	}
}

func TestOptimizeIdempotent(t *testing.T) {
	eval, drivers, asg := swapFixture()
	opt := &Optimizer{Eval: eval}
	opt.Optimize(drivers, asg)

	before := map[string][]string{}
	for k, v := range asg {
		before[k] = append([]string(nil), v...)
	}
	if swaps := opt.Optimize(drivers, asg); swaps != 0 {
		t.Fatalf("second run should be a no-op, got %d swaps", swaps)
	}
	if !reflect.DeepEqual(asg, before) {
		t.Fatalf("assignment changed on re-run: %v -> %v", before, asg)
	}
}

func TestOptimizeRespectsCapacity(t *testing.T) {
	areas := []model.Area{
		{Name: "a1", Members: []string{"p1", "p2"}},
		{Name: "a2", Members: []string{"p3"}},
	}
	table := DistanceTable{}
	table.Add("depot", "a1", 1)
	table.Add("depot", "a2", 100)
	table.Add("a1", "a1", 1)

	eval := &CostEvaluator{Index: NewAreaIndex(areas), Table: table, Depot: "depot"}
	drivers := []model.Driver{
		{Name: "dA", Seats: 2, IsParent: false},
		{Name: "dB", Seats: 1, IsParent: false},
	}
	asg := map[string][]string{"dA": {"p1", "p2"}, "dB": {"p3"}}
	opt := &Optimizer{Eval: eval}
	opt.Optimize(drivers, asg)

	if len(asg["dA"]) > 2 || len(asg["dB"]) > 1 {
		t.Fatalf("capacity violated: %v", asg)
	}
}

func TestOptimizeNeverMovesParentsOwnKid(t *testing.T) {
	areas := []model.Area{
		{Name: "north", Members: []string{"pam", "ann"}},
		{Name: "south", Members: []string{"cara", "sue"}},
	}
	table := DistanceTable{}
	table.Add("depot", "north", 1)
	table.Add("depot", "south", 50)
	table.Add("north", "south", 1)
	table.Add("south", "north", 1)

	eval := &CostEvaluator{Index: NewAreaIndex(areas), Table: table, Depot: "depot"}
	drivers := []model.Driver{
		{Name: "pam", Seats: 2, IsParent: true},
		{Name: "sue", Seats: 2, IsParent: true},
	}
	asg := map[string][]string{"pam": {"pam", "cara"}, "sue": {"sue", "ann"}}
	opt := &Optimizer{Eval: eval}
	opt.Optimize(drivers, asg)

	if len(asg["pam"]) == 0 || asg["pam"][0] != "pam" {
		t.Fatalf("pam's kid moved: %v", asg["pam"])
	}
	if len(asg["sue"]) == 0 || asg["sue"][0] != "sue" {
		t.Fatalf("sue's kid moved: %v", asg["sue"])
	}
}

func TestOptimizeMaxSwapsCap(t *testing.T) {
	eval, drivers, asg := swapFixture()
	opt := &Optimizer{Eval: eval, MaxSwaps: 0}
	// Uncapped run terminates on its own.
	if swaps := opt.Optimize(drivers, asg); swaps != 1 {
		t.Fatalf("uncapped: got %d swaps", swaps)
	}

	_, drivers, asg = swapFixture()
	capped := &Optimizer{Eval: eval, MaxSwaps: 1}
	if swaps := capped.Optimize(drivers, asg); swaps > 1 {
		t.Fatalf("cap exceeded: %d", swaps)
	}
}

// TestOptimizeReachesLocalOptimum certifies the fixpoint: after Optimize no
// capacity-respecting single exchange between any pair lowers combined cost.
func TestOptimizeReachesLocalOptimum(t *testing.T) {
	areas := []model.Area{
		{Name: "n", Members: []string{"a", "b", "dn"}},
		{Name: "s", Members: []string{"c", "d", "ds"}},
		{Name: "e", Members: []string{"f", "de"}},
	}
	table := DistanceTable{}
	table.Add("depot", "n", 4)
	table.Add("depot", "s", 2)
	table.Add("depot", "e", 7)
	table.Add("n", "s", 3)
	table.Add("s", "n", 6)
	table.Add("n", "e", 1)
	table.Add("e", "n", 1)
	table.Add("s", "e", 9)
	table.Add("e", "s", 2)
	table.Add("n", "n", 1)
	table.Add("s", "s", 1)

	eval := &CostEvaluator{Index: NewAreaIndex(areas), Table: table, Depot: "depot"}
	drivers := []model.Driver{
		{Name: "dn", Seats: 2, IsParent: false},
		{Name: "ds", Seats: 2, IsParent: false},
		{Name: "de", Seats: 2, IsParent: false},
	}
	asg := map[string][]string{
		"dn": {"c", "f"},
		"ds": {"a", "b"},
		"de": {"d"},
	}
	opt := &Optimizer{Eval: eval}
	opt.Optimize(drivers, asg)

	for i := 0; i < len(drivers); i++ {
		for j := i + 1; j < len(drivers); j++ {
			da, db := drivers[i], drivers[j]
			la, lb := asg[da.Name], asg[db.Name]
			for ai, pa := range la {
				if pa == da.Name {
					continue
				}
				for bi, pb := range lb {
					if pb == db.Name {
						continue
					}
					newA := swapOut(la, ai, pb)
					newB := swapOut(lb, bi, pa)
					if len(newA) > da.Seats || len(newB) > db.Seats {
						continue
					}
					oldCost := eval.RouteCost(da.Name, la) + eval.RouteCost(db.Name, lb)
					newCost := eval.RouteCost(da.Name, newA) + eval.RouteCost(db.Name, newB)
					if newCost < oldCost {
						t.Fatalf("improving swap left: %s<->%s (%v vs %v)", pa, pb, newCost, oldCost)
					}
				}
			}
		}
	}
}
