package tui

import (
	"fmt"
	"time"

	"github.com/shenikar/incident_tracking_system/internal/models"
)

// filterOrder - порядок переключения фильтра по статусу
var filterOrder = []string{"", string(models.StatusOpen), string(models.StatusClosed)}

func nextFilter(current string) string {
	for i, f := range filterOrder {
		if f == current {
			return filterOrder[(i+1)%len(filterOrder)]
		}
	}
	return filterOrder[0]
}

func filterLabel(filter string) string {
	if filter == "" {
		return "all"
	}
	return filter
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDate(*t)
}

func formatIncidentSummary(incident models.Incident) string {
	return fmt.Sprintf("%-6s | %s | %s | %s",
		incident.Status, incident.Type, formatDate(incident.StartDate), incident.Description)
}
