package status

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frozenTracker(name string) *Tracker {
	t := NewTracker(name)
	t.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	return t
}

func TestTrackerInitialState(t *testing.T) {
	tr := NewTracker("Kitchen")

	snap := tr.Snapshot()
	assert.Equal(t, StateDisconnected, snap.State)
	assert.Equal(t, "Kitchen", snap.PlayerName)
	assert.Zero(t, snap.Sessions)
	assert.Nil(t, snap.ConnectedAt)
}

func TestTrackerSessionLifecycle(t *testing.T) {
	tr := frozenTracker("Kitchen")

	tr.SetState(StateConnecting)
	assert.Equal(t, 1, tr.Snapshot().Sessions)

	tr.SetState(StateResolving)
	tr.SetPlayerID("00%3A04%3A20%3Aaa%3Abb%3Acc")
	tr.SetState(StateSubscribed)
	tr.SetState(StateListening)

	snap := tr.Snapshot()
	assert.Equal(t, StateListening, snap.State)
	assert.Equal(t, "00%3A04%3A20%3Aaa%3Abb%3Acc", snap.PlayerID)
	require.NotNil(t, snap.ConnectedAt)

	tr.SetState(StateLost)
	snap = tr.Snapshot()
	assert.Equal(t, StateLost, snap.State)
	assert.Empty(t, snap.PlayerID, "session state is cleared on loss")
	assert.Nil(t, snap.ConnectedAt)

	tr.SetState(StateConnecting)
	assert.Equal(t, 2, tr.Snapshot().Sessions, "each connect attempt counts a session")
}

func TestTrackerStateChangeHook(t *testing.T) {
	tr := frozenTracker("Kitchen")

	var observed []ConnectionState
	tr.OnStateChange(func(state ConnectionState) {
		observed = append(observed, state)
		// The hook runs outside the lock, so it may read the snapshot.
		assert.Equal(t, state, tr.Snapshot().State)
	})

	tr.SetState(StateConnecting)
	tr.SetState(StateResolving)
	tr.SetState(StateLost)

	assert.Equal(t, []ConnectionState{StateConnecting, StateResolving, StateLost}, observed)
}

func TestTrackerRecordEvent(t *testing.T) {
	tr := frozenTracker("Kitchen")

	steps := 2
	tr.RecordEvent(Event{Kind: "volume:raise", Value: &steps, Script: "vol-up", Source: SourceNotification})
	tr.RecordEvent(Event{Kind: "power:on", Script: "ir-on", Source: SourceSchedule})

	snap := tr.Snapshot()
	assert.Equal(t, 2, snap.EventsDispatched)
	require.NotNil(t, snap.LastEvent)
	assert.Equal(t, "power:on", snap.LastEvent.Kind)
	assert.Equal(t, SourceSchedule, snap.LastEvent.Source)
}

func TestTrackerRecordError(t *testing.T) {
	tr := frozenTracker("Kitchen")

	tr.RecordError(errors.New("connection lost"))
	assert.Equal(t, "connection lost", tr.Snapshot().LastError)

	tr.RecordError(nil)
	assert.Equal(t, "connection lost", tr.Snapshot().LastError, "nil errors are ignored")
}

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster()

	first, cancelFirst := b.Subscribe()
	second, cancelSecond := b.Subscribe()
	defer cancelSecond()
	assert.Equal(t, 2, b.Subscribers())

	b.Publish(Event{Kind: "power:on", Script: "ir-on"})

	assert.Equal(t, "power:on", (<-first).Kind)
	assert.Equal(t, "power:on", (<-second).Kind)

	cancelFirst()
	assert.Equal(t, 1, b.Subscribers())

	_, open := <-first
	assert.False(t, open, "cancel closes the subscriber channel")
}

func TestBroadcasterPublishNeverBlocks(t *testing.T) {
	b := NewBroadcaster()

	ch, cancel := b.Subscribe()
	defer cancel()

	// Overflow the subscriber buffer without a reader; Publish must return.
	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish(Event{Kind: "power:on"})
	}

	assert.Len(t, ch, subscriberBuffer, "excess events are dropped for slow subscribers")
}

func TestBroadcasterCancelIdempotent(t *testing.T) {
	b := NewBroadcaster()

	_, cancel := b.Subscribe()
	cancel()
	cancel()
	assert.Zero(t, b.Subscribers())
}
