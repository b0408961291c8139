package audit

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/config"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/status"
)

// Default configuration values
const (
	DefaultPruneInterval = time.Hour
	DefaultQueryLimit    = 100
	MaxQueryLimit        = 1000
)

// Service manages the audit trail: recording dispatched commands and session
// transitions, querying, and retention-based pruning.
type Service struct {
	cfg    config.AuditConfig
	logger *log.Logger
	repo   *Repository

	pruneInterval time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(cfg config.AuditConfig, dbPair DBPair, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		cfg:           cfg,
		logger:        logger,
		repo:          NewRepository(dbPair),
		pruneInterval: DefaultPruneInterval,
		stopCh:        make(chan struct{}),
	}
}

// RecordDispatch persists one dispatched command. Failures are logged and
// swallowed; the audit trail must never disturb the session.
func (s *Service) RecordDispatch(event status.Event) {
	level := EventLevelInfo
	input := WriteEventInput{
		Type:      EventCommandDispatched,
		Level:     &level,
		EventKind: &event.Kind,
		Script:    &event.Script,
		Source:    &event.Source,
		Message:   fmt.Sprintf("dispatched %s for %s", event.Script, event.Kind),
	}
	if event.Param != "" {
		input.Param = &event.Param
	}
	if event.Value != nil {
		input.Payload = map[string]any{"value": *event.Value}
	}

	if _, err := s.repo.InsertEvent(input); err != nil {
		s.logger.Printf("AUDIT: failed to record dispatch: %v", err)
	}
}

// RecordSessionState persists a session state transition.
func (s *Service) RecordSessionState(state string) {
	input := WriteEventInput{
		Type:    EventSessionState,
		Message: "session state: " + state,
		Payload: map[string]any{"state": state},
	}
	if _, err := s.repo.InsertEvent(input); err != nil {
		s.logger.Printf("AUDIT: failed to record session state: %v", err)
	}
}

// RecordSessionError persists a session failure.
func (s *Service) RecordSessionError(err error) {
	if err == nil {
		return
	}
	level := EventLevelError
	input := WriteEventInput{
		Type:    EventSessionError,
		Level:   &level,
		Message: err.Error(),
	}
	if _, insertErr := s.repo.InsertEvent(input); insertErr != nil {
		s.logger.Printf("AUDIT: failed to record session error: %v", insertErr)
	}
}

// RecordStartup persists a process startup marker.
func (s *Service) RecordStartup(playerName string) {
	input := WriteEventInput{
		Type:    EventSystemStartup,
		Message: "sb-ir-events started",
		Payload: map[string]any{"player_name": playerName},
	}
	if _, err := s.repo.InsertEvent(input); err != nil {
		s.logger.Printf("AUDIT: failed to record startup: %v", err)
	}
}

// QueryEvents retrieves entries with filters and pagination.
// Clamps limit to MaxQueryLimit.
// Returns: events, total count, hasMore flag, error.
func (s *Service) QueryEvents(filters EventQueryFilters) ([]Event, int, bool, error) {
	if filters.Limit == 0 {
		filters.Limit = DefaultQueryLimit
	}
	if filters.Limit > MaxQueryLimit {
		filters.Limit = MaxQueryLimit
	}

	events, total, err := s.repo.QueryEvents(filters)
	if err != nil {
		return nil, 0, false, fmt.Errorf("query audit events: %w", err)
	}

	hasMore := filters.Offset+len(events) < total
	return events, total, hasMore, nil
}

// GetEvent retrieves a single entry by ID. Returns nil, nil when missing.
func (s *Service) GetEvent(eventID string) (*Event, error) {
	return s.repo.GetEvent(eventID)
}

// StartPruneJob starts the background prune job.
// Runs immediately on start, then at pruneInterval.
func (s *Service) StartPruneJob() {
	s.logger.Printf("AUDIT: prune job started (interval: %v, retention: %d days)",
		s.pruneInterval, s.cfg.RetentionDays)

	s.wg.Add(1)
	go s.runPruneLoop()
}

// StopPruneJob stops the background prune job.
func (s *Service) StopPruneJob() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Printf("AUDIT: prune job stopped")
}

func (s *Service) runPruneLoop() {
	defer s.wg.Done()

	s.pruneOnce()

	ticker := time.NewTicker(s.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.pruneOnce()
		}
	}
}

func (s *Service) pruneOnce() {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.RetentionDays)
	count, err := s.repo.Prune(cutoff)
	if err != nil {
		s.logger.Printf("AUDIT: prune failed: %v", err)
		return
	}
	if count > 0 {
		s.logger.Printf("AUDIT: pruned %d entries older than %s", count, cutoff.Format(time.RFC3339))
	}
}
