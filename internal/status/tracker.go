package status

import (
	"sync"
	"time"
)

// ConnectionState is the session lifecycle state of the protocol client.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "DISCONNECTED"
	StateConnecting   ConnectionState = "CONNECTING"
	StateResolving    ConnectionState = "RESOLVING"
	StateSubscribed   ConnectionState = "SUBSCRIBED"
	StateListening    ConnectionState = "LISTENING"
	StateLost         ConnectionState = "LOST"
)

// Event sources.
const (
	SourceNotification = "notification"
	SourceSchedule     = "schedule"
)

// Event is one dispatched command, as exposed on the status API and the
// websocket stream.
type Event struct {
	Kind      string    `json:"kind"`
	Value     *int      `json:"value,omitempty"`
	Script    string    `json:"script"`
	Param     string    `json:"param,omitempty"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is a point-in-time copy of the daemon state.
type Snapshot struct {
	State            ConnectionState `json:"state"`
	PlayerName       string          `json:"player_name"`
	PlayerID         string          `json:"player_id,omitempty"`
	ConnectedAt      *time.Time      `json:"connected_at,omitempty"`
	Sessions         int             `json:"sessions"`
	EventsDispatched int             `json:"events_dispatched"`
	LastEvent        *Event          `json:"last_event,omitempty"`
	LastError        string          `json:"last_error,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Tracker records the session state machine for the read-only status API.
// The session loop is the only writer; the API reads snapshots under the
// lock.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot

	// onState is called after each state transition (audit trail). Optional;
	// set once at startup, before the session loop runs.
	onState func(ConnectionState)

	// Time function for testing
	now func() time.Time
}

// NewTracker creates a tracker in the Disconnected state.
func NewTracker(playerName string) *Tracker {
	t := &Tracker{now: time.Now}
	t.snap = Snapshot{
		State:      StateDisconnected,
		PlayerName: playerName,
		UpdatedAt:  t.now(),
	}
	return t
}

// OnStateChange registers a hook invoked after every state transition.
func (t *Tracker) OnStateChange(hook func(ConnectionState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onState = hook
}

// SetState records a session state transition.
func (t *Tracker) SetState(state ConnectionState) {
	t.mu.Lock()

	t.snap.State = state
	t.snap.UpdatedAt = t.now()

	switch state {
	case StateConnecting:
		t.snap.Sessions++
	case StateListening:
		now := t.now()
		t.snap.ConnectedAt = &now
	case StateLost, StateDisconnected:
		// No session state survives the Lost transition except configuration.
		t.snap.PlayerID = ""
		t.snap.ConnectedAt = nil
	}

	hook := t.onState
	t.mu.Unlock()

	// Invoked outside the lock so the hook may read snapshots.
	if hook != nil {
		hook(state)
	}
}

// SetPlayerID records the id resolved for the current session.
func (t *Tracker) SetPlayerID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.PlayerID = id
	t.snap.UpdatedAt = t.now()
}

// RecordEvent records a dispatched command.
func (t *Tracker) RecordEvent(event Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.EventsDispatched++
	t.snap.LastEvent = &event
	t.snap.UpdatedAt = t.now()
}

// RecordError records the most recent session failure.
func (t *Tracker) RecordError(err error) {
	if err == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.LastError = err.Error()
	t.snap.UpdatedAt = t.now()
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}
