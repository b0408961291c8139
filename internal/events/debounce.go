package events

import (
	"log"
	"math"
)

// volumeStep is the volume delta of one UI step on the knob.
const volumeStep = 5

type pendingVolume struct {
	volume int
	steps  int
}

// VolumeDebouncer smooths raw absolute-volume notifications into discrete
// step counts. The server emits a rapid pair of notifications for a single
// physical knob turn; dispatching per notification double-fires. With the
// lock enabled, the first non-zero observation is held back and the next
// notification resolves the pair into one dispatch.
//
// While the lock is enabled, previous is never advanced past the initial
// seed, so later turns are still measured against the session's starting
// volume. Longstanding behavior; pinned by a regression test until product
// intent says otherwise.
type VolumeDebouncer struct {
	locked   bool
	previous int
	pending  *pendingVolume
	logger   *log.Logger
}

// NewVolumeDebouncer creates a debouncer seeded with the volume queried live
// at session start. A previous session's volume is never carried over.
func NewVolumeDebouncer(locked bool, initialVolume int, logger *log.Logger) *VolumeDebouncer {
	if logger == nil {
		logger = log.Default()
	}
	return &VolumeDebouncer{
		locked:   locked,
		previous: initialVolume,
		logger:   logger,
	}
}

// Observe feeds one absolute volume notification (0-100) into the debouncer.
// It returns the resolved step count and whether a dispatch should fire now.
// At most one observation is ever pending, and it is always consumed by the
// next call.
func (d *VolumeDebouncer) Observe(volume int) (steps int, fire bool) {
	steps = int(math.Round(float64(volume-d.previous) / volumeStep))

	if d.locked && d.pending == nil && steps != 0 {
		d.pending = &pendingVolume{volume: volume, steps: steps}
		d.logger.Printf("EVENT: holding volume %d (%+d steps) for debounce", volume, steps)
		return 0, false
	}

	if d.pending != nil {
		d.pending = nil
	} else if !d.locked {
		d.previous = volume
	}

	return steps, steps != 0
}
