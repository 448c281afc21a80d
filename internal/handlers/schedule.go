package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campusdocs/api/internal/platform/httpx"
	"github.com/campusdocs/api/internal/services"
)

type scheduleResponse struct {
	Date          string `json:"date"`
	Count         int    `json:"count"`
	Capacity      int    `json:"capacity"`
	Full          bool   `json:"full"`
	BlockedReason string `json:"blocked_reason,omitempty"`
}

// ScheduleHandlers exposes the appointment availability endpoint.
type ScheduleHandlers struct {
	schedule services.ScheduleService
}

// NewScheduleHandlers constructs a new ScheduleHandlers instance.
func NewScheduleHandlers(schedule services.ScheduleService) *ScheduleHandlers {
	return &ScheduleHandlers{schedule: schedule}
}

// Routes registers the /schedule endpoints.
func (h *ScheduleHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.checkDate)
}

func (h *ScheduleHandlers) checkDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.schedule == nil {
		httpx.WriteError(ctx, w, httpx.NewError("schedule_service_unavailable", "schedule service unavailable", http.StatusServiceUnavailable))
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "date query parameter is required", http.StatusBadRequest))
		return
	}
	date, err := time.ParseInLocation(dateParamLayout, raw, time.UTC)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "date must be formatted as YYYY-MM-DD", http.StatusBadRequest))
		return
	}

	availability, err := h.schedule.Check(ctx, date)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusOK, scheduleResponse{
		Date:          availability.Date.Format(dateParamLayout),
		Count:         availability.Occupancy.Count,
		Capacity:      availability.Occupancy.Capacity,
		Full:          availability.Occupancy.IsFull(),
		BlockedReason: availability.BlockedReason,
	})
}
