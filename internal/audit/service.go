package audit

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every pending asynchronous write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action string, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		UserAgent: truncate(userAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogAccount records an account lifecycle event (registration, verification,
// password reset).
func (s *Service) LogAccount(userID uint, action, description string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventAccount,
		Action:      action,
		Description: description,
		EntityType:  "user",
		EntityID:    &userID,
		Status:      entities.AuditStatusSuccess,
	}
	setError(event, err)

	s.LogAsync(event)
}

// LogBook records a book mutation. fields lists the changed columns.
func (s *Service) LogBook(userID uint, action string, bookID uint, title string, fields []string) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventBook,
		Action:      action,
		Description: truncate(actionVerb(action)+" book: "+title, 500),
		EntityType:  "book",
		EntityID:    &bookID,
		Status:      entities.AuditStatusSuccess,
	}

	if len(fields) > 0 {
		if md, err := json.Marshal(map[string]any{"fields": fields}); err == nil {
			event.Metadata = string(md)
		}
	}

	s.LogAsync(event)
}

// LogGenre records an admin change to the genre list.
func (s *Service) LogGenre(userID uint, action, name string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventGenre,
		Action:      action,
		Description: actionVerb(action) + " genre: " + name,
		EntityType:  "genre",
		Status:      entities.AuditStatusSuccess,
	})
}

// LogMetadataEnrich records a metadata enrichment event.
func (s *Service) LogMetadataEnrich(userID uint, description string, bookID uint, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventEnrich,
		Action:      "book_enrich",
		Description: description,
		EntityType:  "book",
		EntityID:    &bookID,
		Status:      entities.AuditStatusSuccess,
	}
	setError(event, err)

	s.LogAsync(event)
}

// LogMaintenance records a background sweep. It is written synchronously
// because sweeps already run off the request path.
func (s *Service) LogMaintenance(action, description string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventMaintenance,
		Action:      action,
		Description: description,
		Status:      entities.AuditStatusSuccess,
	}
	setError(event, err)

	if logErr := s.repo.LogEvent(event); logErr != nil {
		log.Printf("Failed to log audit event: %v", logErr)
	}
}

// GetEvents retrieves paginated audit events for a user, optionally of one type.
func (s *Service) GetEvents(userID uint, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.List(audit.Query{UserID: userID, EventType: eventType, Limit: limit, Offset: offset})
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOlderThan(cutoff)
}

func setError(event *entities.AuditEvent, err error) {
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
}

func actionVerb(action string) string {
	switch {
	case strings.HasSuffix(action, "_create"):
		return "Created"
	case strings.HasSuffix(action, "_update"):
		return "Updated"
	case strings.HasSuffix(action, "_delete"):
		return "Deleted"
	default:
		return "Changed"
	}
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
