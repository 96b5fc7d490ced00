package api

import (
	"fmt"

	"carpool/internal/model"
)

func validatePlanRequest(req *model.PlanRequest) error {
	seen := map[string]struct{}{}
	for _, d := range req.Drivers {
		if d.Name == "" {
			return fmt.Errorf("driver name must not be empty")
		}
		if d.Seats < 0 {
			return fmt.Errorf("driver %s: seats must be >= 0", d.Name)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("duplicate driver name: %s", d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	for _, k := range req.Present {
		if k == "" {
			return fmt.Errorf("present entries must not be empty")
		}
	}
	if req.MaxSwaps < 0 {
		return fmt.Errorf("maxSwaps must be >= 0")
	}
	for _, a := range req.AreaOverride {
		if a.Name == "" {
			return fmt.Errorf("areaOverride entries must be named")
		}
	}
	return nil
}
