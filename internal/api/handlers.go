package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rentease/internal/database"
	"rentease/internal/models"
	"rentease/internal/service"
)

const dateLayout = "2006-01-02"

type createBookingRequest struct {
	PropertyID int64  `json:"property_id"`
	TenantID   int64  `json:"tenant_id"`
	StartDate  string `json:"start_date"`
	Notes      string `json:"notes,omitempty"`
}

// handleBookings dispatches the collection routes: create and list.
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createBooking(w, r)
	case http.MethodGet:
		s.listBookings(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request) {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var body createBookingRequest
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.PropertyID == 0 {
		writeError(w, http.StatusBadRequest, "property_id is required")
		return
	}
	if body.TenantID == 0 {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	startDate, err := time.Parse(dateLayout, strings.TrimSpace(body.StartDate))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date; expected YYYY-MM-DD")
		return
	}

	if s.limiter != nil {
		window := time.Duration(s.limits.RateLimitWindow) * time.Second
		allowed, err := s.limiter.CheckRateLimit(r.Context(), body.TenantID, s.limits.RateLimitRequests, window)
		if err != nil {
			s.logger.Error().Err(err).Msg("tenant rate limit check failed")
		} else if !allowed {
			writeError(w, http.StatusTooManyRequests, "too many booking requests, try again later")
			return
		}
	}

	booking, err := s.bookings.CreateBooking(r.Context(), body.PropertyID, body.TenantID, startDate, body.Notes)
	if err != nil {
		s.writeBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Get("tenant_id") != "":
		tenantID, err := strconv.ParseInt(q.Get("tenant_id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid tenant_id")
			return
		}
		views, err := s.bookings.ListByTenant(r.Context(), tenantID)
		if err != nil {
			s.writeBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": views})

	case q.Get("property_id") != "":
		propertyID, err := strconv.ParseInt(q.Get("property_id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid property_id")
			return
		}
		views, err := s.bookings.ListByProperty(r.Context(), propertyID)
		if err != nil {
			s.writeBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": views})

	case q.Get("status") != "":
		status, err := models.ParseStatus(q.Get("status"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		views, err := s.bookings.ListByStatus(r.Context(), status)
		if err != nil {
			s.writeBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": views})

	default:
		writeError(w, http.StatusBadRequest, "tenant_id, property_id or status query is required")
	}
}

// handleBookingByID dispatches /api/v1/bookings/{id} and the transition
// subroutes {id}/approve, {id}/reject, {id}/cancel.
func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		view, err := s.bookings.GetBookingByID(r.Context(), id)
		if err != nil {
			s.writeBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
		return
	}

	if len(parts) != 2 || r.Method != http.MethodPatch {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var (
		booking *models.Booking
		err     error
	)
	switch parts[1] {
	case "approve":
		booking, err = s.bookings.Decide(r.Context(), id, models.StatusApproved)
	case "reject":
		booking, err = s.bookings.Decide(r.Context(), id, models.StatusRejected)
	case "cancel":
		booking, err = s.bookings.Cancel(r.Context(), id)
	default:
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	propertyID, err := strconv.ParseInt(q.Get("property_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "property_id is required")
		return
	}
	tenantID, err := strconv.ParseInt(q.Get("tenant_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(q.Get("date")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	decision, err := s.bookings.CheckAvailability(r.Context(), propertyID, tenantID, date)
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}

	q := r.URL.Query()

	// Date-range export when from/to is supplied; a missing bound falls back
	// to the default window around today.
	if q.Get("from") != "" || q.Get("to") != "" {
		from := time.Now().AddDate(0, -models.DefaultExportRangeMonthsBefore, 0)
		to := time.Now().AddDate(0, models.DefaultExportRangeMonthsAfter, 0)
		var err error
		if raw := q.Get("from"); raw != "" {
			if from, err = time.Parse(dateLayout, raw); err != nil {
				writeError(w, http.StatusBadRequest, "invalid from; expected YYYY-MM-DD")
				return
			}
		}
		if raw := q.Get("to"); raw != "" {
			if to, err = time.Parse(dateLayout, raw); err != nil {
				writeError(w, http.StatusBadRequest, "invalid to; expected YYYY-MM-DD")
				return
			}
		}

		filePath, err := s.exporter.BookingsByDateRange(r.Context(), from, to)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "export failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"file": filePath})
		return
	}

	status := models.StatusPending
	if raw := q.Get("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	}

	filePath, err := s.exporter.BookingsByStatus(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file": filePath})
}

// writeBookingError maps domain failures onto HTTP statuses. Every rejection
// keeps the human-readable reason of the rule that fired.
func (s *HTTPServer) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrPendingRequestExists),
		errors.Is(err, database.ErrAlreadyApproved),
		errors.Is(err, database.ErrDatesUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotPendingBooking),
		errors.Is(err, service.ErrTerminalState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidDecision),
		errors.Is(err, service.ErrInvalidDates):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
