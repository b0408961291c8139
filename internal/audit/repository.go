package audit

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DBPair interface for dependency injection (matches db.DBPair).
type DBPair interface {
	Reader() *sql.DB
	Writer() *sql.DB
}

// Repository handles database operations for the audit trail.
// Uses separate reader/writer connections for optimal SQLite concurrency.
type Repository struct {
	reader *sql.DB
	writer *sql.DB
}

// NewRepository creates a new audit Repository.
func NewRepository(dbPair DBPair) *Repository {
	return &Repository{reader: dbPair.Reader(), writer: dbPair.Writer()}
}

// InsertEvent writes a new audit entry.
// Generates a UUID, captures the timestamp, defaults level to INFO.
func (r *Repository) InsertEvent(input WriteEventInput) (*Event, error) {
	eventID := uuid.New().String()
	timestamp := nowISO()

	level := EventLevelInfo
	if input.Level != nil {
		level = *input.Level
	}

	payload := input.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	_, err = r.writer.Exec(`
		INSERT INTO events_log (event_id, timestamp, type, level, event_kind, script, param, source, message, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, eventID, timestamp, string(input.Type), string(level), input.EventKind, input.Script, input.Param, input.Source, input.Message, string(payloadJSON))
	if err != nil {
		return nil, err
	}

	return r.GetEvent(eventID)
}

// GetEvent retrieves a single entry by ID.
// Returns nil, nil if not found.
func (r *Repository) GetEvent(eventID string) (*Event, error) {
	row := r.reader.QueryRow(`
		SELECT event_id, timestamp, type, level, event_kind, script, param, source, message, payload
		FROM events_log
		WHERE event_id = ?
	`, eventID)

	return r.scanEvent(row)
}

// QueryEvents retrieves entries matching filters with pagination.
// Orders by timestamp DESC (newest first).
// Returns events, total count, and error.
func (r *Repository) QueryEvents(filters EventQueryFilters) ([]Event, int, error) {
	whereClause, args := r.buildWhereClause(filters)

	countQuery := "SELECT COUNT(*) FROM events_log " + whereClause
	var total int
	if err := r.reader.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT event_id, timestamp, type, level, event_kind, script, param, source, message, payload
		FROM events_log
		` + whereClause + `
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?
	`
	queryArgs := append(args, limit, filters.Offset)

	rows, err := r.reader.Query(query, queryArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := r.scanEventRows(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, *event)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if events == nil {
		events = []Event{}
	}

	return events, total, nil
}

// Prune deletes entries older than the cutoff time.
// Returns number of rows deleted.
func (r *Repository) Prune(cutoff time.Time) (int64, error) {
	result, err := r.writer.Exec(`
		DELETE FROM events_log
		WHERE timestamp < ?
	`, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// buildWhereClause builds a dynamic WHERE clause based on provided filters.
func (r *Repository) buildWhereClause(filters EventQueryFilters) (string, []any) {
	conditions := []string{}
	args := []any{}

	if filters.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, string(*filters.Type))
	}
	if filters.Level != nil {
		conditions = append(conditions, "level = ?")
		args = append(args, string(*filters.Level))
	}
	if filters.EventKind != nil {
		conditions = append(conditions, "event_kind = ?")
		args = append(args, *filters.EventKind)
	}
	if filters.StartDate != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *filters.StartDate)
	}
	if filters.EndDate != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *filters.EndDate)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	return whereClause, args
}

func (r *Repository) scanEvent(row *sql.Row) (*Event, error) {
	var event Event
	var timestamp, eventType, level, payloadJSON string
	var eventKind, script, param, source sql.NullString

	err := row.Scan(
		&event.EventID,
		&timestamp,
		&eventType,
		&level,
		&eventKind,
		&script,
		&param,
		&source,
		&event.Message,
		&payloadJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return r.parseEvent(&event, timestamp, eventType, level, eventKind, script, param, source, payloadJSON)
}

func (r *Repository) scanEventRows(rows *sql.Rows) (*Event, error) {
	var event Event
	var timestamp, eventType, level, payloadJSON string
	var eventKind, script, param, source sql.NullString

	err := rows.Scan(
		&event.EventID,
		&timestamp,
		&eventType,
		&level,
		&eventKind,
		&script,
		&param,
		&source,
		&event.Message,
		&payloadJSON,
	)
	if err != nil {
		return nil, err
	}

	return r.parseEvent(&event, timestamp, eventType, level, eventKind, script, param, source, payloadJSON)
}

func (r *Repository) parseEvent(event *Event, timestamp, eventType, level string, eventKind, script, param, source sql.NullString, payloadJSON string) (*Event, error) {
	var err error
	event.Timestamp, err = time.Parse(time.RFC3339, timestamp)
	if err != nil {
		event.Timestamp, _ = time.Parse("2006-01-02 15:04:05", timestamp)
	}

	event.Type = EventType(eventType)
	event.Level = EventLevel(level)

	if eventKind.Valid {
		event.EventKind = &eventKind.String
	}
	if script.Valid {
		event.Script = &script.String
	}
	if param.Valid {
		event.Param = &param.String
	}
	if source.Valid {
		event.Source = &source.String
	}

	if err := json.Unmarshal([]byte(payloadJSON), &event.Payload); err != nil {
		return nil, err
	}

	return event, nil
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
