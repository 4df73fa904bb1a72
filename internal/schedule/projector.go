package schedule

import "zolver/internal/models"

// Project maps an appointment list onto calendar-grid events. It is a pure
// transformation: no filtering, no mutation. Cancelled appointments stay in
// the output with their status inspectable through Source; hiding them is a
// rendering decision the caller owns.
func Project(appointments []*models.Appointment) []models.CalendarEvent {
	events := make([]models.CalendarEvent, 0, len(appointments))
	for _, a := range appointments {
		events = append(events, models.CalendarEvent{
			ID:     a.ID,
			Title:  a.Title,
			Start:  a.Start,
			End:    a.End,
			Color:  ColorForType(a.Type),
			Source: a,
		})
	}
	return events
}

// ColorForType returns the fixed visual bucket for an appointment type.
func ColorForType(appointmentType string) string {
	if appointmentType == models.TypePlatformJob {
		return models.ColorPlatformJob
	}
	return models.ColorExternalJob
}
