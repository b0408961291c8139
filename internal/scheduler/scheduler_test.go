package scheduler

import (
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/apperrors"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/config"
)

type recordingRunner struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recordingRunner) Run(kind string, value *int, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestStartRegistersAllSchedules(t *testing.T) {
	schedules := []config.ScheduleSpec{
		{Name: "evening off", Cron: "0 23 * * *", Event: config.EventPowerOff},
		{Name: "morning on", Cron: "30 6 * * 1-5", Event: config.EventPowerOn},
	}
	s := NewService(schedules, &recordingRunner{}, testLogger())

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Equal(t, 2, s.Entries())
}

func TestStartWithoutSchedules(t *testing.T) {
	s := NewService(nil, &recordingRunner{}, testLogger())

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Zero(t, s.Entries())
}

func TestStartRejectsUnparsableExpression(t *testing.T) {
	schedules := []config.ScheduleSpec{
		{Name: "broken", Cron: "not a cron line", Event: config.EventPowerOff},
	}
	s := NewService(schedules, &recordingRunner{}, testLogger())

	err := s.Start()
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrorCodeConfigInvalid, appErr.Code)
	assert.Contains(t, appErr.Message, "broken")
}
