package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// TokenPurger deletes verification and reset tokens that expired before now.
type TokenPurger interface {
	PurgeExpiredTokens(now time.Time) (int64, error)
}

// PurgeExpiredTokensTask sweeps expired one-time tokens.
type PurgeExpiredTokensTask struct{}

// Config returns the queue configuration for token purge tasks.
func (t PurgeExpiredTokensTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "purge_expired_tokens",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
		},
	}
}

// PurgeExpiredTokensProcessor creates a processor function for PurgeExpiredTokensTask.
func PurgeExpiredTokensProcessor(purger TokenPurger) backlite.QueueProcessor[PurgeExpiredTokensTask] {
	return func(ctx context.Context, task PurgeExpiredTokensTask) error {
		if purger == nil {
			return fmt.Errorf("token purger not configured")
		}

		deleted, err := purger.PurgeExpiredTokens(time.Now())
		if err != nil {
			return fmt.Errorf("purge expired tokens: %w", err)
		}

		log.Printf("[TASK] Purged %d expired tokens", deleted)
		return nil
	}
}

// NewPurgeExpiredTokensQueue creates a backlite queue for token purge tasks.
func NewPurgeExpiredTokensQueue(purger TokenPurger) backlite.Queue {
	return backlite.NewQueue(PurgeExpiredTokensProcessor(purger))
}
