package audit

import (
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/db"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	dbPair, err := db.Init(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbPair.Close() })

	return NewRepository(dbPair)
}

func strPtr(s string) *string { return &s }

func typePtr(t EventType) *EventType { return &t }

func levelPtr(l EventLevel) *EventLevel { return &l }

func TestInsertAndGetEvent(t *testing.T) {
	repo := newTestRepository(t)

	inserted, err := repo.InsertEvent(WriteEventInput{
		Type:      EventCommandDispatched,
		EventKind: strPtr("power:on"),
		Script:    strPtr("ir-on"),
		Param:     strPtr("KEY_POWER"),
		Source:    strPtr("notification"),
		Message:   "dispatched ir-on for power:on",
		Payload:   map[string]any{"value": 2},
	})
	require.NoError(t, err)
	require.NotNil(t, inserted)
	assert.NotEmpty(t, inserted.EventID)
	assert.Equal(t, EventLevelInfo, inserted.Level, "level defaults to INFO")
	assert.False(t, inserted.Timestamp.IsZero())

	got, err := repo.GetEvent(inserted.EventID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, EventCommandDispatched, got.Type)
	require.NotNil(t, got.EventKind)
	assert.Equal(t, "power:on", *got.EventKind)
	require.NotNil(t, got.Source)
	assert.Equal(t, "notification", *got.Source)
	assert.Equal(t, float64(2), got.Payload["value"], "payload round-trips through JSON")
}

func TestGetEventMissing(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.GetEvent("no-such-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInsertEventNullableFields(t *testing.T) {
	repo := newTestRepository(t)

	inserted, err := repo.InsertEvent(WriteEventInput{
		Type:    EventSessionError,
		Level:   levelPtr(EventLevelError),
		Message: "connection lost",
	})
	require.NoError(t, err)
	assert.Nil(t, inserted.EventKind)
	assert.Nil(t, inserted.Script)
	assert.Nil(t, inserted.Param)
	assert.Nil(t, inserted.Source)
	assert.Equal(t, map[string]any{}, inserted.Payload)
}

func TestQueryEventsFilters(t *testing.T) {
	repo := newTestRepository(t)

	mustInsert := func(input WriteEventInput) {
		_, err := repo.InsertEvent(input)
		require.NoError(t, err)
	}
	mustInsert(WriteEventInput{Type: EventSystemStartup, Message: "started"})
	mustInsert(WriteEventInput{Type: EventCommandDispatched, EventKind: strPtr("power:on"), Message: "on"})
	mustInsert(WriteEventInput{Type: EventCommandDispatched, EventKind: strPtr("power:off"), Message: "off"})
	mustInsert(WriteEventInput{Type: EventSessionError, Level: levelPtr(EventLevelError), Message: "lost"})

	events, total, err := repo.QueryEvents(EventQueryFilters{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, events, 4)

	events, total, err = repo.QueryEvents(EventQueryFilters{Type: typePtr(EventCommandDispatched)})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, events, 2)

	events, total, err = repo.QueryEvents(EventQueryFilters{EventKind: strPtr("power:off")})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, "off", events[0].Message)

	events, total, err = repo.QueryEvents(EventQueryFilters{Level: levelPtr(EventLevelError)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, EventSessionError, events[0].Type)
}

func TestQueryEventsPagination(t *testing.T) {
	repo := newTestRepository(t)

	for i := 0; i < 5; i++ {
		_, err := repo.InsertEvent(WriteEventInput{Type: EventSystemStartup, Message: "started"})
		require.NoError(t, err)
	}

	events, total, err := repo.QueryEvents(EventQueryFilters{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, events, 2)

	events, total, err = repo.QueryEvents(EventQueryFilters{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, events, 1)
}

func TestQueryEventsEmpty(t *testing.T) {
	repo := newTestRepository(t)

	events, total, err := repo.QueryEvents(EventQueryFilters{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestPrune(t *testing.T) {
	repo := newTestRepository(t)

	for i := 0; i < 3; i++ {
		_, err := repo.InsertEvent(WriteEventInput{Type: EventSystemStartup, Message: "started"})
		require.NoError(t, err)
	}

	deleted, err := repo.Prune(time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted, "entries within retention are kept")

	deleted, err = repo.Prune(time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	_, total, err := repo.QueryEvents(EventQueryFilters{})
	require.NoError(t, err)
	assert.Zero(t, total)
}
