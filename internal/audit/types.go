package audit

import "time"

// EventLevel represents the severity level of an audit event.
type EventLevel string

const (
	EventLevelInfo  EventLevel = "INFO"
	EventLevelWarn  EventLevel = "WARN"
	EventLevelError EventLevel = "ERROR"
)

// EventType marks what an audit entry records.
type EventType string

const (
	EventCommandDispatched EventType = "command.dispatched"
	EventSessionState      EventType = "session.state"
	EventSessionError      EventType = "session.error"
	EventSystemStartup     EventType = "system.startup"
)

// Event is one persisted audit trail entry.
type Event struct {
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Level     EventLevel     `json:"level"`
	EventKind *string        `json:"event_kind,omitempty"`
	Script    *string        `json:"script,omitempty"`
	Param     *string        `json:"param,omitempty"`
	Source    *string        `json:"source,omitempty"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload"`
}

// WriteEventInput contains the fields for creating a new audit entry.
type WriteEventInput struct {
	Type      EventType      `json:"type"`
	Level     *EventLevel    `json:"level,omitempty"`
	EventKind *string        `json:"event_kind,omitempty"`
	Script    *string        `json:"script,omitempty"`
	Param     *string        `json:"param,omitempty"`
	Source    *string        `json:"source,omitempty"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// EventQueryFilters contains optional filters for querying the audit trail.
type EventQueryFilters struct {
	Type      *EventType  `json:"type,omitempty"`
	Level     *EventLevel `json:"level,omitempty"`
	EventKind *string     `json:"event_kind,omitempty"`
	StartDate *string     `json:"start_date,omitempty"` // RFC 3339
	EndDate   *string     `json:"end_date,omitempty"`   // RFC 3339
	Limit     int         `json:"limit,omitempty"`
	Offset    int         `json:"offset,omitempty"`
}
