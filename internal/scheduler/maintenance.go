// Package scheduler runs the periodic housekeeping jobs: the sweep of expired
// one-time tokens and the audit log retention cleanup.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Enqueuer hands a task to the background queue.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// MaintenanceScheduler triggers token purges and audit cleanups on a cron
// schedule. With a queue attached the jobs are enqueued, otherwise they run
// in the scheduler goroutine.
type MaintenanceScheduler struct {
	cfg           config.Maintenance
	retentionDays int
	purger        tasks.TokenPurger
	cleaner       tasks.AuditEventCleaner
	queue         Enqueuer
	auditService  *audit.Service

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a new scheduler instance
func NewMaintenanceScheduler(cfg config.Maintenance, retentionDays int, purger tasks.TokenPurger, cleaner tasks.AuditEventCleaner) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		cfg:           cfg,
		retentionDays: retentionDays,
		purger:        purger,
		cleaner:       cleaner,
		cron:          cron.New(cron.WithParser(parser)),
	}
}

// SetQueue routes the jobs through the task queue.
func (s *MaintenanceScheduler) SetQueue(q Enqueuer) {
	s.queue = q
}

func (s *MaintenanceScheduler) SetAuditService(a *audit.Service) {
	s.auditService = a
}

// Start begins the scheduler if maintenance is enabled
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.Enabled {
		log.Printf("[SCHEDULER] Maintenance disabled")
		return nil
	}

	if err := ValidateSchedule(s.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.cfg.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("[SCHEDULER] Maintenance started with schedule '%s'. Next run: %v",
		s.cfg.Schedule, s.cron.Entry(entryID).Next)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job and stops the scheduler.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("[SCHEDULER] Maintenance stopped")
}

// IsRunning returns whether the scheduler is active
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next maintenance run will occur
func (s *MaintenanceScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	return &entry.Next
}

// RunOnce performs one maintenance pass.
func (s *MaintenanceScheduler) RunOnce(ctx context.Context) {
	s.run(ctx, "purge_expired_tokens", tasks.PurgeExpiredTokensTask{}, func() error {
		return tasks.PurgeExpiredTokensProcessor(s.purger)(ctx, tasks.PurgeExpiredTokensTask{})
	})

	cleanup := tasks.CleanupAuditEventsTask{RetentionDays: s.retentionDays}
	s.run(ctx, "cleanup_audit_events", cleanup, func() error {
		return tasks.CleanupAuditEventsProcessor(s.cleaner)(ctx, cleanup)
	})
}

func (s *MaintenanceScheduler) run(ctx context.Context, action string, task backlite.Task, inline func() error) {
	if ctx.Err() != nil {
		return
	}

	if s.queue != nil {
		id, err := s.queue.Enqueue(task)
		if err != nil {
			log.Printf("[SCHEDULER] Failed to enqueue %s: %v", action, err)
			s.logAudit(action, "enqueue failed", err)
			return
		}
		log.Printf("[SCHEDULER] Enqueued %s (task %s)", action, id)
		return
	}

	start := time.Now()
	if err := inline(); err != nil {
		log.Printf("[SCHEDULER] %s failed: %v", action, err)
		s.logAudit(action, "run failed", err)
		return
	}
	s.logAudit(action, fmt.Sprintf("completed in %v", time.Since(start).Round(time.Millisecond)), nil)
}

func (s *MaintenanceScheduler) logAudit(action, description string, err error) {
	if s.auditService == nil {
		return
	}
	s.auditService.LogMaintenance(action, description, err)
}
