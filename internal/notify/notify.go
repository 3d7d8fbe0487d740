// Package notify delivers execution summaries to recipients.
package notify

import "context"

// Notification is what gets sent after a successful content creation.
type Notification struct {
	ScheduleID string   `json:"scheduleId"`
	OwnerID    string   `json:"ownerId"`
	ArtifactID string   `json:"artifactId"`
	Recipients []string `json:"-"`
	Subject    string   `json:"subject"`
	Summary    string   `json:"summary"`
}

// Notifier sends a notification to every recipient. A non-nil error means at least
// one recipient was not reached.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
