package model

// Core domain types shared by the planner, store, and API.

// Area is a named bucket of kid names. Member order is declaration order
// and is preserved through merging; duplicates are suppressed.
type Area struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Driver describes one vehicle. Seats excludes the driver. When IsParent is
// true the driver's own name doubles as their kid's name and that kid rides
// as a normal passenger; when false the named kid drives themselves and
// never rides.
type Driver struct {
	Name     string `json:"name"`
	Seats    int    `json:"seats"`
	IsParent bool   `json:"isParent"`
}

// DistanceEdge is a single directed area-to-area cost entry.
type DistanceEdge struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Cost float64 `json:"cost"`
}

// PlanRequest carries everything one planning invocation needs. Present
// order is authoritative: it fixes candidate enumeration and tie-breaks for
// the whole run. AreaOverride entries are appended onto the persisted
// membership without duplicating existing names.
type PlanRequest struct {
	TenantID     string         `json:"tenantId"`
	Present      []string       `json:"present"`
	Drivers      []Driver       `json:"drivers"`
	AreaOverride []Area         `json:"areaOverride,omitempty"`
	Distances    []DistanceEdge `json:"distances,omitempty"`
	Depot        string         `json:"depot,omitempty"`
	MaxSwaps     int            `json:"maxSwaps,omitempty"`
}

// Plan is a persisted planning result.
type Plan struct {
	ID              string              `json:"id"`
	TenantID        string              `json:"tenantId"`
	Depot           string              `json:"depot"`
	RideAssignments map[string][]string `json:"rideAssignments"`
	Unassigned      []string            `json:"unassignedPeople"`
	Cost            float64             `json:"cost"`
	Swaps           int                 `json:"swaps"`
	CreatedAt       string              `json:"createdAt"`
}

// Webhook subscription models.

type SubscriptionRequest struct {
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret"`
}

type Subscription struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret,omitempty"`
}
