// Package schedule computes next execution instants for schedule definitions and
// validates cadence/anchor combinations before they are stored.
package schedule

import (
	"time"

	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/types"
)

// ComputeNextRun returns the next execution instant of def relative to now, in UTC.
//
// The candidate is built in the schedule's timezone at ScheduledTime:
//   - once: ScheduledDate at ScheduledTime, returned as-is even if already past
//   - daily: today, or tomorrow when today's candidate is not after now
//   - weekly: the next DayOfWeek on or after today; today only while still ahead of now
//   - monthly: DayOfMonth in the current month (clamped to the month's last day), or the
//     same anchor next month when that is not after now
//
// def must already have passed Validate; there is no error return.
func ComputeNextRun(def types.ScheduleDefinition, now time.Time) time.Time {
	loc := def.Location()
	local := now.In(loc)
	clock, _ := ParseClock(def.ScheduledTime)

	// Every candidate is rebuilt from its calendar date so a DST shift on one day does not
	// carry into the next.
	at := func(dayOffset int) time.Time {
		return time.Date(local.Year(), local.Month(), local.Day()+dayOffset, clock.Hour, clock.Minute, 0, 0, loc)
	}
	candidate := at(0)

	switch def.ScheduleType {
	case state.Once:
		if def.ScheduledDate == nil {
			return candidate.UTC()
		}
		d := *def.ScheduledDate
		return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour, clock.Minute, 0, 0, loc).UTC()

	case state.Daily:
		if !candidate.After(now) {
			candidate = at(1)
		}

	case state.Weekly:
		target := 0
		if def.DayOfWeek != nil {
			target = *def.DayOfWeek
		}
		diff := (target - int(local.Weekday()) + 7) % 7
		candidate = at(diff)
		if diff == 0 && !candidate.After(now) {
			candidate = at(7)
		}

	case state.Monthly:
		anchor := 1
		if def.DayOfMonth != nil {
			anchor = *def.DayOfMonth
		}
		candidate = monthlyCandidate(local.Year(), local.Month(), anchor, clock, loc)
		if !candidate.After(now) {
			candidate = monthlyCandidate(local.Year(), local.Month()+1, anchor, clock, loc)
		}
	}

	return candidate.UTC()
}

// monthlyCandidate places anchor in the given month, clamping to the last day when the
// month is shorter. month may overflow past December; time.Date normalizes it.
func monthlyCandidate(year int, month time.Month, anchor int, clock Clock, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := anchor
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, clock.Hour, clock.Minute, 0, 0, loc)
}
