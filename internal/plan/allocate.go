package plan

import "carpool/internal/model"

// roster is the mutable working set of still-unassigned present kids. It
// always enumerates in the original present-kid input order, so same-area
// fill and nearest-neighbor tie-breaks are deterministic.
type roster struct {
	order []string
	in    map[string]struct{}
}

func newRoster(present []string) *roster {
	r := &roster{in: make(map[string]struct{}, len(present))}
	for _, name := range present {
		if _, dup := r.in[name]; dup {
			continue
		}
		r.in[name] = struct{}{}
		r.order = append(r.order, name)
	}
	return r
}

func (r *roster) contains(name string) bool {
	_, ok := r.in[name]
	return ok
}

func (r *roster) remove(name string) {
	delete(r.in, name)
}

// names returns the remaining kids in input order.
func (r *roster) names() []string {
	out := make([]string, 0, len(r.in))
	for _, name := range r.order {
		if _, ok := r.in[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// allocator builds the initial assignment with three greedy passes over the
// driver list, sharing one roster across all passes.
type allocator struct {
	index *AreaIndex
	table DistanceTable
	depot string
}

// Allocate runs the three construction passes and returns the initial
// assignment plus whatever could not be seated, in input order.
func (a *allocator) Allocate(present []string, drivers []model.Driver) (map[string][]string, []string) {
	rest := newRoster(present)
	asg := make(map[string][]string, len(drivers))
	for _, d := range drivers {
		asg[d.Name] = []string{}
	}
	a.seatOwnKids(drivers, asg, rest)
	a.fillSameArea(drivers, asg, rest)
	a.fillNearest(drivers, asg, rest)
	return asg, rest.names()
}

// seatOwnKids consumes each driver's own name from the roster. A parent
// driver's present kid takes position 0 when there is a seat for it; a
// kid-driver is removed without a seat, since they never ride.
func (a *allocator) seatOwnKids(drivers []model.Driver, asg map[string][]string, rest *roster) {
	for _, d := range drivers {
		if !rest.contains(d.Name) {
			continue
		}
		if d.IsParent && d.Seats >= 1 {
			asg[d.Name] = append(asg[d.Name], d.Name)
			rest.remove(d.Name)
		} else if !d.IsParent {
			rest.remove(d.Name)
		}
		// A parent with zero seats leaves their kid in the roster for
		// another driver to pick up.
	}
}

// fillSameArea gives leftover seats to remaining kids from the driver's own
// home area, in roster order.
func (a *allocator) fillSameArea(drivers []model.Driver, asg map[string][]string, rest *roster) {
	for _, d := range drivers {
		left := d.Seats - len(asg[d.Name])
		if left <= 0 {
			continue
		}
		home, ok := a.index.AreaOf(d.Name)
		if !ok {
			continue
		}
		for _, kid := range rest.names() {
			if left == 0 {
				break
			}
			if kid == d.Name {
				continue
			}
			if area, ok := a.index.AreaOf(kid); !ok || area != home {
				continue
			}
			asg[d.Name] = append(asg[d.Name], kid)
			rest.remove(kid)
			left--
		}
	}
}

// fillNearest runs a greedy nearest-neighbor walk from the depot for each
// driver with leftover capacity. Only kids with a resolvable area and a
// defined distance from the current location are candidates; ties go to the
// earliest roster position. When no candidate has a defined edge the driver
// keeps their unused seats and the walk moves on.
func (a *allocator) fillNearest(drivers []model.Driver, asg map[string][]string, rest *roster) {
	for _, d := range drivers {
		left := d.Seats - len(asg[d.Name])
		cur := a.depot
		for left > 0 {
			best := ""
			bestArea := ""
			bestCost := 0.0
			for _, kid := range rest.names() {
				if kid == d.Name {
					continue
				}
				area, ok := a.index.AreaOf(kid)
				if !ok {
					continue
				}
				cost, ok := a.table.Lookup(cur, area)
				if !ok {
					continue
				}
				if best == "" || cost < bestCost {
					best = kid
					bestArea = area
					bestCost = cost
				}
			}
			if best == "" {
				break
			}
			asg[d.Name] = append(asg[d.Name], best)
			rest.remove(best)
			cur = bestArea
			left--
		}
	}
}
