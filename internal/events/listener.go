package events

import (
	"context"
	"log"
	"time"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/config"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/lms"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/status"
)

// pollTimeout bounds each event read so the loop stays responsive to
// shutdown.
const pollTimeout = 2 * time.Second

// eventSource is the subset of lms.Client the listener consumes.
type eventSource interface {
	ReadEventLine(timeout time.Duration) (string, error)
}

// Listener multiplexes unsolicited push notifications against the session
// grammar and routes matches to the event runner. Dispatch is synchronous and
// sequential: one line's command list, delays included, completes before the
// next line is read. Bursts are handled in arrival order with no queue.
type Listener struct {
	source    eventSource
	grammar   *lms.Grammar
	debouncer *VolumeDebouncer
	runner    *Runner
	logger    *log.Logger
}

// NewListener creates a listener over an open, subscribed connection.
func NewListener(source eventSource, grammar *lms.Grammar, debouncer *VolumeDebouncer, runner *Runner, logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.Default()
	}
	return &Listener{
		source:    source,
		grammar:   grammar,
		debouncer: debouncer,
		runner:    runner,
		logger:    logger,
	}
}

// Listen consumes push notifications until the connection fails or ctx is
// canceled. It only ever returns a non-nil error: connection loss, or the
// context's error on shutdown.
func (l *Listener) Listen(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := l.source.ReadEventLine(pollTimeout)
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}

		l.logger.Printf("EVENT: received %q", line)
		l.handleLine(line)
	}
}

// handleLine tries the power matcher, then the volume matcher. First match
// wins; a line cannot be both. Unmatched lines are protocol chatter and are
// ignored.
func (l *Listener) handleLine(line string) {
	if on, ok := l.grammar.MatchPower(line); ok {
		kind := config.EventPowerOff
		if on {
			kind = config.EventPowerOn
		}
		l.runner.Run(kind, nil, status.SourceNotification)
		return
	}

	if volume, ok := l.grammar.MatchVolume(line); ok {
		steps, fire := l.debouncer.Observe(volume)
		if !fire {
			return
		}

		kind := config.EventVolumeRaise
		if steps < 0 {
			kind = config.EventVolumeLower
			steps = -steps
		}
		l.runner.Run(kind, &steps, status.SourceNotification)
	}
}
