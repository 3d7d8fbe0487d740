package schedule

import (
	"strings"
	"time"

	"github.com/RezaEskandarii/reportfire/custom_errors"
	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/types"
)

// Validate rejects cadence/anchor combinations the calculator cannot handle, plus the
// identity fields an execution depends on. It returns nil or a *custom_errors.ValidationError.
func Validate(def types.ScheduleDefinition) error {
	v := &custom_errors.ValidationError{}

	if strings.TrimSpace(def.OwnerID) == "" {
		v.AddField("ownerId", "is required")
	}
	switch def.ContentKind {
	case state.ContentDaily, state.ContentWeekly:
	default:
		v.AddField("contentKind", "must be daily or weekly, got %q", def.ContentKind)
	}
	if strings.TrimSpace(def.Template) == "" {
		v.AddField("template", "is required")
	}
	for i, r := range def.Recipients {
		if strings.TrimSpace(r) == "" {
			v.AddField("recipients", "entry %d is blank", i)
		}
	}

	if _, err := ParseClock(def.ScheduledTime); err != nil {
		v.AddField("scheduledTime", "%s", err.Error())
	}
	if def.Timezone != "" {
		if _, err := time.LoadLocation(def.Timezone); err != nil {
			v.AddField("timezone", "unknown timezone %q", def.Timezone)
		}
	}

	switch def.ScheduleType {
	case state.Once:
		if def.ScheduledDate == nil {
			v.AddField("scheduledDate", "is required for once schedules")
		}
	case state.Daily:
	case state.Weekly:
		if def.DayOfWeek == nil {
			v.AddField("dayOfWeek", "is required for weekly schedules")
		} else if *def.DayOfWeek < 0 || *def.DayOfWeek > 6 {
			v.AddField("dayOfWeek", "must be between 0 and 6, got %d", *def.DayOfWeek)
		}
	case state.Monthly:
		if def.DayOfMonth == nil {
			v.AddField("dayOfMonth", "is required for monthly schedules")
		} else if *def.DayOfMonth < 1 || *def.DayOfMonth > 31 {
			v.AddField("dayOfMonth", "must be between 1 and 31, got %d", *def.DayOfMonth)
		}
	default:
		v.AddField("scheduleType", "must be one of %s, got %q", scheduleTypeNames(), def.ScheduleType)
	}

	return v.OrNil()
}

func scheduleTypeNames() string {
	names := make([]string, len(state.AllScheduleTypes))
	for i, t := range state.AllScheduleTypes {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
