package state

// ExecutionStatus is the outcome recorded for one execution attempt.
type ExecutionStatus string

const (
	StatusSuccess ExecutionStatus = "success"
	StatusFailed  ExecutionStatus = "failed"
	StatusPartial ExecutionStatus = "partial"
)

func (s ExecutionStatus) String() string {
	return string(s)
}

func (s ExecutionStatus) IsValid() bool {
	for _, status := range AllStatuses {
		if status == s {
			return true
		}
	}
	return false
}

var AllStatuses = []ExecutionStatus{
	StatusSuccess,
	StatusFailed,
	StatusPartial,
}

// ScheduleType is the cadence of a schedule.
type ScheduleType string

const (
	Once    ScheduleType = "once"
	Daily   ScheduleType = "daily"
	Weekly  ScheduleType = "weekly"
	Monthly ScheduleType = "monthly"
)

func (t ScheduleType) String() string {
	return string(t)
}

func (t ScheduleType) IsRecurring() bool {
	return t == Daily || t == Weekly || t == Monthly
}

var AllScheduleTypes = []ScheduleType{Once, Daily, Weekly, Monthly}

// ContentKind is the kind of artifact a schedule produces.
type ContentKind string

const (
	ContentDaily  ContentKind = "daily"
	ContentWeekly ContentKind = "weekly"
)

func (k ContentKind) String() string {
	return string(k)
}

// ScheduleState is the lifecycle state of a single schedule as seen by the dispatcher.
type ScheduleState string

const (
	StateActive    ScheduleState = "active"
	StateExecuting ScheduleState = "executing"
	StateInactive  ScheduleState = "inactive"
)

type Transition struct {
	From ScheduleState
	To   ScheduleState
}

// ValidTransitions lists every legal schedule state change. Executing always leaves
// through Active (recurring, or any toggle back on) or Inactive (once, or toggled off).
var ValidTransitions = []Transition{
	{From: StateActive, To: StateExecuting},
	{From: StateExecuting, To: StateActive},
	{From: StateExecuting, To: StateInactive},
	{From: StateActive, To: StateInactive},
	{From: StateInactive, To: StateActive},
}

func IsValidTransition(from, to ScheduleState) bool {
	for _, t := range ValidTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// AfterExecution returns the state a schedule lands in once an execution finishes.
// Failures do not deactivate recurring schedules; a once schedule is always terminal.
func AfterExecution(scheduleType ScheduleType) ScheduleState {
	if scheduleType.IsRecurring() {
		return StateActive
	}
	return StateInactive
}
