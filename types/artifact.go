package types

import (
	"time"

	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/lib/pq"
)

// Artifact is the content produced by a successful execution.
type Artifact struct {
	ID         string            `db:"id"`
	OwnerID    string            `db:"owner_id"`
	CompanyID  *string           `db:"company_id"`
	ScheduleID *string           `db:"schedule_id"`
	Kind       state.ContentKind `db:"kind"`
	Title      string            `db:"title"`
	Body       string            `db:"body"`
	Tags       pq.StringArray    `db:"tags"`
	CreatedAt  time.Time         `db:"created_at"`
}

// Summary is the short text handed to the notification sender.
func (a Artifact) Summary() string {
	const max = 280
	if len(a.Body) <= max {
		return a.Body
	}
	return a.Body[:max] + "..."
}
