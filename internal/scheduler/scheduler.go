package scheduler

import (
	"log"

	"github.com/robfig/cron/v3"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/apperrors"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/config"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/status"
)

// EventRunner dispatches the command list for an event kind. Satisfied by
// events.Runner.
type EventRunner interface {
	Run(kind string, value *int, source string)
}

// Service fires configured event kinds on cron schedules (e.g. a nightly
// power:off), independent of the protocol session. Scheduled dispatches go
// through the same runner as notification-driven ones.
type Service struct {
	logger    *log.Logger
	cron      *cron.Cron
	schedules []config.ScheduleSpec
	runner    EventRunner
}

// NewService creates the scheduler for the configured entries.
func NewService(schedules []config.ScheduleSpec, runner EventRunner, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		logger:    logger,
		cron:      cron.New(),
		schedules: schedules,
		runner:    runner,
	}
}

// Start registers all entries and starts the cron loop. Expressions were
// validated with the configuration, so a parse failure here is a bug.
func (s *Service) Start() error {
	for _, schedule := range s.schedules {
		schedule := schedule
		_, err := s.cron.AddFunc(schedule.Cron, func() {
			s.logger.Printf("SCHED: firing %s (%s)", schedule.Event, schedule.Name)
			s.runner.Run(schedule.Event, nil, status.SourceSchedule)
		})
		if err != nil {
			return apperrors.NewConfigError("register schedule "+schedule.Name, err)
		}
	}

	if len(s.schedules) > 0 {
		s.logger.Printf("SCHED: %d schedule(s) registered", len(s.schedules))
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Printf("SCHED: stopped")
}

// Entries returns the number of registered schedules.
func (s *Service) Entries() int {
	return len(s.cron.Entries())
}
