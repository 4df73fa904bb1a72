package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentOccupies(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   bool
	}{
		{"scheduled occupies", StatusScheduled, true},
		{"cancelled releases", StatusCancelled, false},
		{"completed releases", StatusCompleted, false},
		{"unknown status occupies", "unknown", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Appointment{Status: tt.status}
			assert.Equal(t, tt.want, a.Occupies())
		})
	}
}

func TestAppointmentJSONOmitsEmptyFields(t *testing.T) {
	a := Appointment{
		ID:             "a1",
		ProfessionalID: "pro-1",
		Title:          "Pipe repair",
		Start:          time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
		End:            time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
		Type:           TypeExternalJob,
		Status:         StatusScheduled,
	}

	raw, err := json.Marshal(a)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.NotContains(t, decoded, "job_id")
	assert.NotContains(t, decoded, "client_name")
	assert.NotContains(t, decoded, "value")
	assert.Equal(t, "external_job", decoded["type"])
}

func TestCalendarEventKeepsSource(t *testing.T) {
	a := &Appointment{ID: "a1", Title: "Pipe repair"}
	event := CalendarEvent{ID: a.ID, Title: a.Title, Color: ColorExternalJob, Source: a}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded CalendarEvent
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NotNil(t, decoded.Source)
	assert.Equal(t, "a1", decoded.Source.ID)
}
