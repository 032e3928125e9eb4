package retry

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
)

// ErrConflict is returned when a transaction still violates a uniqueness
// constraint after it has been re-run.
var ErrConflict = errors.New("conflict persisted after retry")

// MaxAttempts is how many times OnConflict runs fn in total.
const MaxAttempts = 2

// OnConflict runs fn and, if it fails with repositories.ErrDuplicate, runs it
// once more from scratch. fn must re-read all state it depends on. Any other
// error is returned as is.
func OnConflict(ctx context.Context, logger *zap.Logger, operation string, fn func() error) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}

		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("Operation succeeded after conflict retry",
					zap.String("operation", operation),
					zap.Int("attempts", attempt))
			}
			return nil
		}
		if !errors.Is(lastErr, repositories.ErrDuplicate) {
			return lastErr
		}

		logger.Warn("Uniqueness conflict, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
	}

	return fmt.Errorf("%s: %w: %v", operation, ErrConflict, lastErr)
}
