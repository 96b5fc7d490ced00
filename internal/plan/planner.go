package plan

import "carpool/internal/model"

// DefaultDepot is the well-known starting area for every route when a
// request does not name one.
const DefaultDepot = "depot"

// Planner owns the immutable per-invocation inputs: the merged area index,
// the distance table, and the depot. It is built once and discarded with the
// result; no state survives across invocations.
type Planner struct {
	Index    *AreaIndex
	Table    DistanceTable
	Depot    string
	MaxSwaps int
}

// Result is the final assignment plus the kids nobody could take, in
// present-list order.
type Result struct {
	RideAssignments map[string][]string `json:"rideAssignments"`
	Unassigned      []string            `json:"unassignedPeople"`
	Cost            float64             `json:"cost"`
	Swaps           int                 `json:"swaps"`
}

// New builds a Planner over merged area data and a distance table.
func New(areas []model.Area, table DistanceTable, depot string) *Planner {
	if depot == "" {
		depot = DefaultDepot
	}
	if table == nil {
		table = DistanceTable{}
	}
	return &Planner{Index: NewAreaIndex(areas), Table: table, Depot: depot}
}

// Plan seats the present kids with the three-pass allocator and then runs
// the swap optimizer to a local fixpoint.
func (p *Planner) Plan(present []string, drivers []model.Driver) Result {
	alloc := &allocator{index: p.Index, table: p.Table, depot: p.Depot}
	asg, unassigned := alloc.Allocate(present, drivers)

	eval := &CostEvaluator{Index: p.Index, Table: p.Table, Depot: p.Depot}
	opt := &Optimizer{Eval: eval, MaxSwaps: p.MaxSwaps}
	swaps := opt.Optimize(drivers, asg)

	total := 0.0
	for _, d := range drivers {
		total += eval.RouteCost(d.Name, asg[d.Name])
	}
	return Result{RideAssignments: asg, Unassigned: unassigned, Cost: total, Swaps: swaps}
}
