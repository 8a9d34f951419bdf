package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookwindow/libs/httpx"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/boundary"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/storage"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

type WindowHandler struct {
	svc    *boundary.Service
	logger *slog.Logger
}

func NewWindowHandler(svc *boundary.Service, logger *slog.Logger) *WindowHandler {
	return &WindowHandler{svc: svc, logger: logger}
}

type limitsResponse struct {
	EventTypeID               string `json:"event_type_id"`
	PeriodType                string `json:"period_type"`
	Kind                      string `json:"kind"`
	RollingEnd                string `json:"rolling_end,omitempty"`
	RangeStart                string `json:"range_start,omitempty"`
	RangeEnd                  string `json:"range_end,omitempty"`
	MinimumNoticeMinutes      int    `json:"minimum_booking_notice_minutes"`
	RollingWindowCheckSkipped bool   `json:"rolling_window_check_skipped"`
}

type checkRequest struct {
	EventTypeID     string `json:"event_type_id"`
	Time            string `json:"time"`
	BookerUTCOffset int    `json:"booker_utc_offset"`
}

type checkResponse struct {
	OutOfBounds               bool   `json:"out_of_bounds"`
	Reason                    string `json:"reason"`
	RollingWindowCheckSkipped bool   `json:"rolling_window_check_skipped,omitempty"`
}

type bookabilityRequest struct {
	EventTypeID     string                `json:"event_type_id"`
	BookerUTCOffset int                   `json:"booker_utc_offset"`
	Days            window.BookabilityMap `json:"days"`
}

// limitTimeLayout keeps the millisecond of an end-of-day bound visible.
const limitTimeLayout = "2006-01-02T15:04:05.000Z07:00"

func (h *WindowHandler) PeriodLimits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventTypeID := strings.TrimSpace(r.URL.Query().Get("event_type_id"))
	if eventTypeID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "event_type_id is required", "")
		return
	}
	offset, err := parseOffset(r.URL.Query().Get("booker_utc_offset"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid booker_utc_offset", "")
		return
	}

	res, err := h.svc.Limits(r.Context(), eventTypeID, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := limitsResponse{
		EventTypeID:               res.EventType.EventTypeID,
		PeriodType:                string(res.EventType.Period.Type),
		Kind:                      res.Limits.Kind(),
		MinimumNoticeMinutes:      res.EventType.MinimumNoticeMinutes,
		RollingWindowCheckSkipped: res.RollingWindowCheckSkipped,
	}
	switch l := res.Limits.(type) {
	case window.RollingLimit:
		resp.RollingEnd = l.End.Format(limitTimeLayout)
	case window.RangeLimit:
		resp.RangeStart = l.Start.Format(limitTimeLayout)
		resp.RangeEnd = l.End.Format(limitTimeLayout)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *WindowHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body", "")
		return
	}
	req.EventTypeID = strings.TrimSpace(req.EventTypeID)
	if req.EventTypeID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "event_type_id is required", "")
		return
	}
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Time))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid time", "")
		return
	}

	res, err := h.svc.Check(r.Context(), req.EventTypeID, at, req.BookerUTCOffset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, checkResponse{
		OutOfBounds:               res.OutOfBounds,
		Reason:                    res.Reason,
		RollingWindowCheckSkipped: res.RollingWindowCheckSkipped,
	})
}

func (h *WindowHandler) UpsertPeriod(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req boundary.PeriodPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body", "")
		return
	}
	et, err := req.ToModel()
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := h.svc.UpsertPeriod(r.Context(), et); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.logger.Info("event type period updated", "event_type_id", et.EventTypeID, "period_type", string(et.Period.Type))
	w.WriteHeader(http.StatusNoContent)
}

func (h *WindowHandler) PutBookability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body", "")
		return
	}
	for day := range req.Days {
		if _, err := time.Parse(window.DayKeyLayout, day); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid day key "+strconv.Quote(day), "")
			return
		}
	}
	if err := h.svc.StoreBookability(r.Context(), strings.TrimSpace(req.EventTypeID), req.BookerUTCOffset, req.Days); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WindowHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, window.ErrBookingDateInPast):
		httpx.WriteError(w, http.StatusUnprocessableEntity, err.Error(), boundary.ReasonInPast)
	case errors.Is(err, boundary.ErrInvalidEventTypeID), errors.Is(err, boundary.ErrInvalidBookerOffset),
		errors.Is(err, window.ErrInvalidPeriodConfig):
		httpx.WriteError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, storage.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "event type not found", "")
	default:
		h.logger.Error("window request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error", "")
	}
}

func parseOffset(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return n, nil
}
