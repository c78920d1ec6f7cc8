package assistant

import (
	"fmt"
	"strings"
)

// maintenanceNouns trigger part-oriented supplementary searches.
var maintenanceNouns = []string{
	"tensioner", "brake", "clutch", "chain", "gear", "oil", "filter",
	"spark plug", "tire",
}

// maxProactiveQueries bounds the extra calls spent anticipating the user's
// next question.
const maxProactiveQueries = 2

// PlanProactiveSearches synthesizes up to two supplementary queries from the
// current message and known preferences. Part-based templates are generated
// before vehicle-based ones and win the cap.
func PlanProactiveSearches(message string, prefs Preferences) []string {
	lower := strings.ToLower(message)

	var queries []string
	for _, noun := range maintenanceNouns {
		if !strings.Contains(lower, noun) {
			continue
		}
		queries = append(queries,
			strings.TrimSpace(fmt.Sprintf("%s installation guide %s", noun, prefs.VehicleMake)),
			strings.TrimSpace(fmt.Sprintf("%s troubleshooting %s", noun, prefs.VehicleMake)),
			strings.TrimSpace(fmt.Sprintf("%s replacement cost %s", noun, prefs.VehicleMake)),
		)
		break
	}

	if prefs.VehicleMake != "" && prefs.VehicleModel != "" {
		queries = append(queries,
			fmt.Sprintf("%s %s common problems", prefs.VehicleMake, prefs.VehicleModel),
			fmt.Sprintf("%s %s maintenance schedule", prefs.VehicleMake, prefs.VehicleModel),
		)
	}

	if len(queries) > maxProactiveQueries {
		queries = queries[:maxProactiveQueries]
	}
	return queries
}
