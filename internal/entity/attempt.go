package entity

import (
	"time"

	"github.com/google/uuid"
)

// Attempt represents one processing attempt for data transfer between layers.
type Attempt struct {
	ID         uuid.UUID  `json:"id"`
	Filename   string     `json:"filename"`
	Filepath   string     `json:"filepath"`
	Trigger    string     `json:"trigger"`
	Status     string     `json:"status"`
	Reason     *string    `json:"reason,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
