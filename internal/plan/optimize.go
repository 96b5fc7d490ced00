package plan

import "carpool/internal/model"

// Optimizer refines an assignment by exchanging single passengers between
// driver pairs. It is a first-improvement hill climber: the first swap that
// strictly lowers the pair's combined route cost is committed and the whole
// scan restarts from the first pair. Every accepted swap decreases a sum of
// nonnegative costs, so the search terminates on its own; MaxSwaps is an
// extra safety cap (0 means uncapped).
type Optimizer struct {
	Eval     *CostEvaluator
	MaxSwaps int
}

// Optimize mutates asg in place and returns the number of committed swaps.
func (o *Optimizer) Optimize(drivers []model.Driver, asg map[string][]string) int {
	swaps := 0
	for {
		if o.MaxSwaps > 0 && swaps >= o.MaxSwaps {
			return swaps
		}
		if !o.scanOnce(drivers, asg) {
			return swaps
		}
		swaps++
	}
}

// scanOnce walks all unordered driver pairs in input order and commits the
// first improving exchange it finds.
func (o *Optimizer) scanOnce(drivers []model.Driver, asg map[string][]string) bool {
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
					oldCost := o.Eval.RouteCost(da.Name, la) + o.Eval.RouteCost(db.Name, lb)
					newCost := o.Eval.RouteCost(da.Name, newA) + o.Eval.RouteCost(db.Name, newB)
					if newCost < oldCost {
						asg[da.Name] = newA
						asg[db.Name] = newB
						return true
					}
				}
			}
		}
	}
	return false
}

// swapOut removes the passenger at index i and appends the replacement at
// the end rather than splicing it into the vacated slot.
func swapOut(list []string, i int, add string) []string {
	out := make([]string, 0, len(list))
	out = append(out, list[:i]...)
	out = append(out, list[i+1:]...)
	out = append(out, add)
	return out
}
