package types

import (
	"time"

	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/lib/pq"
)

// ScheduleDefinition describes what to produce, when and for whom.
type ScheduleDefinition struct {
	ID               string            `db:"id" json:"id"`
	OwnerID          string            `db:"owner_id" json:"ownerId"`
	ContentKind      state.ContentKind `db:"content_kind" json:"contentKind"`
	Template         string            `db:"template" json:"template"`
	CompanyID        *string           `db:"company_id" json:"companyId,omitempty"`
	Tags             pq.StringArray    `db:"tags" json:"tags"`
	Recipients       pq.StringArray    `db:"recipients" json:"recipients"`
	SendNotification bool              `db:"send_notification" json:"sendNotification"`

	ScheduleType  state.ScheduleType `db:"schedule_type" json:"scheduleType"`
	ScheduledTime string             `db:"scheduled_time" json:"scheduledTime"`           // HH:MM, cadence-local
	ScheduledDate *time.Time         `db:"scheduled_date" json:"scheduledDate,omitempty"` // once only; only the date part is used
	DayOfWeek     *int               `db:"day_of_week" json:"dayOfWeek,omitempty"`        // weekly only, 0 = Sunday
	DayOfMonth    *int               `db:"day_of_month" json:"dayOfMonth,omitempty"`      // monthly only
	Timezone      string             `db:"timezone" json:"timezone"`

	IsActive  bool       `db:"is_active" json:"isActive"`
	LastRun   *time.Time `db:"last_run" json:"lastRun,omitempty"`
	NextRun   time.Time  `db:"next_run" json:"nextRun"`
	LockedBy  *string    `db:"locked_by" json:"lockedBy,omitempty"`
	LockedAt  *time.Time `db:"locked_at" json:"lockedAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// Location returns the schedule's timezone, falling back to UTC for an empty or unknown name.
func (s ScheduleDefinition) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SchedulePatch carries a partial update. Nil fields are left unchanged.
type SchedulePatch struct {
	ContentKind      *state.ContentKind
	Template         *string
	CompanyID        **string
	Tags             *[]string
	Recipients       *[]string
	SendNotification *bool

	ScheduleType  *state.ScheduleType
	ScheduledTime *string
	ScheduledDate **time.Time
	DayOfWeek     **int
	DayOfMonth    **int
	Timezone      *string
}

// TouchesCadence reports whether the patch changes any field the next run depends on.
func (p SchedulePatch) TouchesCadence() bool {
	return p.ScheduleType != nil ||
		p.ScheduledTime != nil ||
		p.ScheduledDate != nil ||
		p.DayOfWeek != nil ||
		p.DayOfMonth != nil ||
		p.Timezone != nil
}

// Apply returns a copy of def with the patch applied.
func (p SchedulePatch) Apply(def ScheduleDefinition) ScheduleDefinition {
	if p.ContentKind != nil {
		def.ContentKind = *p.ContentKind
	}
	if p.Template != nil {
		def.Template = *p.Template
	}
	if p.CompanyID != nil {
		def.CompanyID = *p.CompanyID
	}
	if p.Tags != nil {
		def.Tags = append(pq.StringArray(nil), (*p.Tags)...)
	}
	if p.Recipients != nil {
		def.Recipients = append(pq.StringArray(nil), (*p.Recipients)...)
	}
	if p.SendNotification != nil {
		def.SendNotification = *p.SendNotification
	}
	if p.ScheduleType != nil {
		def.ScheduleType = *p.ScheduleType
	}
	if p.ScheduledTime != nil {
		def.ScheduledTime = *p.ScheduledTime
	}
	if p.ScheduledDate != nil {
		def.ScheduledDate = *p.ScheduledDate
	}
	if p.DayOfWeek != nil {
		def.DayOfWeek = *p.DayOfWeek
	}
	if p.DayOfMonth != nil {
		def.DayOfMonth = *p.DayOfMonth
	}
	if p.Timezone != nil {
		def.Timezone = *p.Timezone
	}
	return def
}
