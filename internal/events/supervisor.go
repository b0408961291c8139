package events

import (
	"context"
	"log"
	"time"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/apperrors"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/config"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/lms"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/status"
)

// SessionClient is the protocol surface one session consumes. *lms.Client
// implements it; tests substitute a scripted fake.
type SessionClient interface {
	Send(line string) (string, error)
	SendCommand(template string, args ...string) (string, error)
	Query(command string, args ...string) (string, error)
	QueryInt(command string, args ...string) (int, error)
	ReadEventLine(timeout time.Duration) (string, error)
	Close() error
}

// Supervisor owns the outer reconnect loop: connect, resolve, subscribe,
// listen until failure, wait the restart delay, repeat forever. A session is
// the unit of retry; nothing inside one is retried locally, and no session
// state survives into the next. Only process shutdown ends the loop.
type Supervisor struct {
	cfg     config.Config
	runner  *Runner
	tracker *status.Tracker
	logger  *log.Logger

	// errorHook is invoked with each session failure (audit trail). Optional.
	errorHook func(error)

	// Injected for testing
	dial func() (SessionClient, error)
	wait func(ctx context.Context, d time.Duration)
}

// NewSupervisor creates the reconnect supervisor.
func NewSupervisor(cfg config.Config, runner *Runner, tracker *status.Tracker, logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = log.Default()
	}
	s := &Supervisor{
		cfg:     cfg,
		runner:  runner,
		tracker: tracker,
		logger:  logger,
	}
	s.dial = func() (SessionClient, error) {
		return lms.Dial(cfg.Server.Host, cfg.Server.Port, logger)
	}
	s.wait = func(ctx context.Context, d time.Duration) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	return s
}

// OnSessionError registers a hook invoked with each session failure.
func (s *Supervisor) OnSessionError(hook func(error)) {
	s.errorHook = hook
}

// Run loops sessions until ctx is canceled. An unrecoverable session error
// ends the loop instead of hot-looping against a failure that cannot clear.
func (s *Supervisor) Run(ctx context.Context) {
	restartDelay := time.Duration(s.cfg.Server.RestartDelay) * time.Second

	for {
		err := s.runSession(ctx)
		if ctx.Err() != nil {
			s.logger.Printf("SESSION: shutting down")
			return
		}

		s.tracker.RecordError(err)
		s.tracker.SetState(status.StateLost)
		if s.errorHook != nil && err != nil {
			s.errorHook(err)
		}

		if !apperrors.IsRecoverable(err) {
			s.logger.Printf("SESSION: %v; not retrying", err)
			return
		}
		s.logger.Printf("SESSION: %v; restarting in %v", err, restartDelay)

		s.wait(ctx, restartDelay)
		if ctx.Err() != nil {
			s.logger.Printf("SESSION: shutting down")
			return
		}
		s.tracker.SetState(status.StateDisconnected)
	}
}

// runSession drives one connect-through-lost lifecycle. Any error aborts the
// session with no partial state kept; the deferred Close guarantees the
// connection is released before a new one is opened.
func (s *Supervisor) runSession(ctx context.Context) error {
	s.tracker.SetState(status.StateConnecting)
	client, err := s.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	s.tracker.SetState(status.StateResolving)
	playerID, err := lms.ResolvePlayerID(client, s.cfg.PlayerName)
	if err != nil {
		return err
	}
	s.tracker.SetPlayerID(playerID)
	s.logger.Printf("SESSION: resolved player %q to id %s", s.cfg.PlayerName, playerID)

	// Seed the debouncer before subscribing, while the stream still carries
	// nothing but command replies.
	initialVolume, err := client.QueryInt(playerID + " mixer volume")
	if err != nil {
		return err
	}

	grammar := lms.CompileGrammar(playerID)

	if _, err := client.Send("subscribe power,mixer"); err != nil {
		return err
	}
	s.tracker.SetState(status.StateSubscribed)

	debouncer := NewVolumeDebouncer(s.cfg.VolumeLockEnabled(), initialVolume, s.logger)
	listener := NewListener(client, grammar, debouncer, s.runner, s.logger)

	s.tracker.SetState(status.StateListening)
	s.logger.Printf("SESSION: listening for power and mixer events (volume %d)", initialVolume)
	return listener.Listen(ctx)
}
