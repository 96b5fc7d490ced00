package plan

// CostEvaluator approximates a driver's route cost from the depot through
// the assigned pickup order and on to the driver's own area.
type CostEvaluator struct {
	Index *AreaIndex
	Table DistanceTable
	Depot string
}

// RouteCost walks the passenger list in order, summing known area-to-area
// distances. A hop whose kid, area, or edge is unknown contributes nothing
// and does not advance the current location; that leniency is policy, not an
// error. The final leg from the last reached location to the driver's own
// area follows the same rule. Permuting passengers can change the result
// whenever the table is asymmetric.
func (e *CostEvaluator) RouteCost(driver string, passengers []string) float64 {
	cur := e.Depot
	total := 0.0
	for _, kid := range passengers {
		area, ok := e.Index.AreaOf(kid)
		if !ok {
			continue
		}
		d, ok := e.Table.Lookup(cur, area)
		if !ok {
			continue
		}
		total += d
		cur = area
	}
	if home, ok := e.Index.AreaOf(driver); ok {
		if d, ok := e.Table.Lookup(cur, home); ok {
			total += d
		}
	}
	return total
}
