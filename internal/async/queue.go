package async

import (
	"context"
	"time"
)

// Job is one path waiting to be processed.
type Job struct {
	Path        string
	Trigger     string // "watch" or "rescan"
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
