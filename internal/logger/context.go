package logger

import (
	"context"
	"time"
)

// GetDeadlineInfo returns slog attributes describing the context deadline,
// if one is set. Useful when logging before outbound network calls.
func GetDeadlineInfo(ctx context.Context) []any {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	return []any{
		"deadline", deadline.UTC().Format(time.RFC3339),
		"remaining", time.Until(deadline).Round(time.Millisecond).String(),
	}
}
