package common

import (
	"context"

	"github.com/google/uuid"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyAttemptID contextKey = "attempt_id"
	ContextKeyTrigger   contextKey = "trigger"
)

// WithAttemptID adds an attempt ID to the context
func WithAttemptID(ctx context.Context, attemptID uuid.UUID) context.Context {
	return context.WithValue(ctx, ContextKeyAttemptID, attemptID)
}

// AttemptIDFromContext extracts the attempt ID from context
func AttemptIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ContextKeyAttemptID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// WithTrigger records what caused a file to be processed ("backfill", "watch", "rescan").
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, ContextKeyTrigger, trigger)
}

// TriggerFromContext extracts the trigger from context
func TriggerFromContext(ctx context.Context) string {
	if trigger, ok := ctx.Value(ContextKeyTrigger).(string); ok {
		return trigger
	}
	return ""
}
