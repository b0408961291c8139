package events

import (
	"log"
	"strconv"
	"time"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/config"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/dispatch"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/status"
)

// Runner executes the ordered command list configured for an event kind. It
// is shared by the notification listener and the cron scheduler. Execution is
// synchronous: each command's delay is slept through before the command runs,
// and the caller blocks until the whole list has finished.
type Runner struct {
	cfg      config.Config
	executor dispatch.Executor
	logger   *log.Logger

	// notify is called after each command invocation (tracker, broadcaster,
	// audit trail). Optional.
	notify func(status.Event)

	// Injected for testing
	sleep func(time.Duration)
	now   func() time.Time
}

// NewRunner creates a Runner for the configured event mapping.
func NewRunner(cfg config.Config, executor dispatch.Executor, notify func(status.Event), logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		cfg:      cfg,
		executor: executor,
		notify:   notify,
		logger:   logger,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// Run dispatches the command list for kind. value carries the volume step
// count for volume events and is nil otherwise. source tags where the event
// came from. Command failures are logged and never escalate.
func (r *Runner) Run(kind string, value *int, source string) {
	commands := r.cfg.Events[kind]
	if len(commands) == 0 {
		r.logger.Printf("EVENT: no commands configured for %s", kind)
		return
	}

	for _, cmd := range commands {
		if cmd.Delay > 0 {
			r.sleep(time.Duration(cmd.Delay) * time.Millisecond)
		}

		script := cmd.Script
		if script == "" {
			script = r.cfg.DefaultScript
		}

		param := cmd.Param
		if cmd.IncludeValue && value != nil {
			if param != "" {
				param += " "
			}
			param += strconv.Itoa(*value)
		}

		if err := r.executor.Execute(script, param); err != nil {
			r.logger.Printf("EVENT: command for %s failed: %v", kind, err)
		}

		if r.notify != nil {
			r.notify(status.Event{
				Kind:      kind,
				Value:     value,
				Script:    script,
				Param:     param,
				Source:    source,
				Timestamp: r.now(),
			})
		}
	}
}
