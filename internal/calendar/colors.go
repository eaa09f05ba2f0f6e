package calendar

import "praxis/internal/model"

// defaultColor is used for any status missing from the table.
const defaultColor = "#34495e"

var statusColors = map[model.SessionStatus]string{
	model.StatusScheduled:               "#3498db",
	model.StatusConfirmed:               "#2ecc71",
	model.StatusCompleted:               "#27ae60",
	model.StatusCancelledByClient:       "#e74c3c",
	model.StatusCancelledByPractitioner: "#f39c12",
	model.StatusNoShow:                  "#95a5a6",
	model.StatusRescheduled:             "#9b59b6",
}

// StatusColor returns the display color for a session status.
func StatusColor(status model.SessionStatus) string {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return defaultColor
}
