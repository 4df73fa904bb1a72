package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"zolver/internal/database"
	"zolver/internal/metrics"
	"zolver/internal/models"
	"zolver/internal/schedule"
	"zolver/internal/service"
)

type externalCreateRequest struct {
	ProfessionalID string    `json:"professional_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Location       string    `json:"location"`
	Value          float64   `json:"value"`
}

type jobCreateRequest struct {
	JobID          string      `json:"job_id"`
	ProfessionalID string      `json:"professional_id"`
	ClientID       string      `json:"client_id"`
	ClientName     string      `json:"client_name"`
	ClientAvatar   string      `json:"client_avatar"`
	ServiceName    string      `json:"service_name"`
	Description    string      `json:"description"`
	ScheduledFor   string      `json:"scheduled_for"`
	Address        *jobAddress `json:"address"`
	Price          float64     `json:"price"`
}

type jobAddress struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement"`
	City       string `json:"city"`
	State      string `json:"state"`
}

type statusUpdateRequest struct {
	Status  string `json:"status"`
	Version int64  `json:"version"`
}

func (s *HTTPServer) handleCreateExternal(w http.ResponseWriter, r *http.Request) {
	var body externalCreateRequest
	if !decodeBody(w, r, &body) {
		return
	}

	created, err := s.appointments.CreateExternal(r.Context(), service.CreateExternalParams{
		ProfessionalID: body.ProfessionalID,
		Title:          body.Title,
		Description:    body.Description,
		Start:          body.Start,
		End:            body.End,
		Location:       body.Location,
		Value:          body.Value,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleCreateFromJob(w http.ResponseWriter, r *http.Request) {
	var body jobCreateRequest
	if !decodeBody(w, r, &body) {
		return
	}

	params := service.CreateFromJobParams{
		JobID:          body.JobID,
		ProfessionalID: body.ProfessionalID,
		ClientID:       body.ClientID,
		ClientName:     body.ClientName,
		ClientAvatar:   body.ClientAvatar,
		ServiceName:    body.ServiceName,
		Description:    body.Description,
		ScheduledFor:   body.ScheduledFor,
		Price:          body.Price,
	}
	if body.Address != nil {
		params.Address = &service.JobAddress{
			Street:     body.Address.Street,
			Number:     body.Address.Number,
			Complement: body.Address.Complement,
			City:       body.Address.City,
			State:      body.Address.State,
		}
	}

	created, err := s.appointments.CreateFromJob(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body statusUpdateRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Status != models.StatusCancelled && body.Status != models.StatusCompleted {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported status %q", body.Status))
		return
	}

	if err := s.appointments.UpdateStatus(r.Context(), id, body.Version, body.Status); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.appointments.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleList(w http.ResponseWriter, r *http.Request) {
	appointments, err := s.appointments.ListForProfessional(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appointments})
}

func (s *HTTPServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	events, err := s.schedules.GetSchedule(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	professionalID := r.PathValue("id")

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start; expected RFC3339")
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end; expected RFC3339")
		return
	}
	exclude := r.URL.Query().Get("exclude")

	available, err := s.appointments.IsAvailable(r.Context(), professionalID, start, end, exclude)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"available": available})
}

func (s *HTTPServer) handleExportGoogle(w http.ResponseWriter, r *http.Request) {
	a, err := s.appointments.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.IncExport("google")
	writeJSON(w, http.StatusOK, map[string]string{"url": schedule.GoogleCalendarLink(a)})
}

func (s *HTTPServer) handleExportICS(w http.ResponseWriter, r *http.Request) {
	a, err := s.appointments.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.IncExport("ics")
	w.Header().Set("Content-Type", "text/calendar")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", schedule.ICSFilename(a.Title)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(schedule.ICalendar(a, time.Now())))
}

func (s *HTTPServer) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "excel export is not configured")
		return
	}

	professionalID := r.PathValue("id")
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).
		AddDate(0, -models.DefaultExportRangeMonthsBefore, 0)
	end := start.AddDate(0, models.DefaultExportRangeMonthsBefore+models.DefaultExportRangeMonthsAfter+1, 0)

	content, err := s.exporter.ExcelSchedule(r.Context(), professionalID, start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.IncExport("xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "schedule_"+professionalID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeServiceError maps the service error taxonomy onto HTTP statuses:
// validation 400, not found 404, conflict and lost updates 409,
// store timeouts 503, everything else 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrNotAvailable):
		writeError(w, http.StatusConflict, "time slot unavailable")
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
