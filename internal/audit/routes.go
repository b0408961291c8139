package audit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/api"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/apperrors"
)

var validEventTypes = map[string]EventType{
	string(EventCommandDispatched): EventCommandDispatched,
	string(EventSessionState):      EventSessionState,
	string(EventSessionError):      EventSessionError,
	string(EventSystemStartup):     EventSystemStartup,
}

var validEventLevels = map[string]EventLevel{
	"INFO":  EventLevelInfo,
	"WARN":  EventLevelWarn,
	"ERROR": EventLevelError,
}

// RegisterRoutes wires the audit trail routes to the router. Read-only: the
// daemon is the only writer.
func RegisterRoutes(router chi.Router, service *Service) {
	router.Method(http.MethodGet, "/v1/events", api.Handler(queryEvents(service)))
	router.Method(http.MethodGet, "/v1/events/{event_id}", api.Handler(getEvent(service)))
}

// queryEvents retrieves audit entries with optional filters.
// GET /v1/events
func queryEvents(service *Service) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		filters, err := parseQueryFilters(r)
		if err != nil {
			return err
		}

		events, total, hasMore, err := service.QueryEvents(filters)
		if err != nil {
			return apperrors.NewInternalError("Failed to query audit events")
		}

		return api.WriteList(w, "/v1/events", events, total, hasMore)
	}
}

// getEvent retrieves a single audit entry by ID.
// GET /v1/events/{event_id}
func getEvent(service *Service) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		eventID := chi.URLParam(r, "event_id")

		event, err := service.GetEvent(eventID)
		if err != nil {
			return apperrors.NewInternalError("Failed to get audit event")
		}
		if event == nil {
			return apperrors.NewAppError(apperrors.ErrorCodeEventNotFound,
				"audit event not found: "+eventID, 404, nil)
		}

		return api.WriteResource(w, http.StatusOK, event)
	}
}

func parseQueryFilters(r *http.Request) (EventQueryFilters, error) {
	filters := EventQueryFilters{}
	query := r.URL.Query()

	if raw := query.Get("type"); raw != "" {
		eventType, ok := validEventTypes[raw]
		if !ok {
			return filters, apperrors.NewValidationError("invalid event type: "+raw, nil)
		}
		filters.Type = &eventType
	}

	if raw := query.Get("level"); raw != "" {
		level, ok := validEventLevels[raw]
		if !ok {
			return filters, apperrors.NewValidationError("invalid event level: "+raw, nil)
		}
		filters.Level = &level
	}

	if raw := query.Get("kind"); raw != "" {
		filters.EventKind = &raw
	}

	if raw := query.Get("start_date"); raw != "" {
		if _, err := time.Parse(time.RFC3339, raw); err != nil {
			return filters, apperrors.NewValidationError("start_date must be RFC 3339", nil)
		}
		filters.StartDate = &raw
	}

	if raw := query.Get("end_date"); raw != "" {
		if _, err := time.Parse(time.RFC3339, raw); err != nil {
			return filters, apperrors.NewValidationError("end_date must be RFC 3339", nil)
		}
		filters.EndDate = &raw
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filters, apperrors.NewValidationError("limit must be a non-negative integer", nil)
		}
		filters.Limit = limit
	}

	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filters, apperrors.NewValidationError("offset must be a non-negative integer", nil)
		}
		filters.Offset = offset
	}

	return filters, nil
}
