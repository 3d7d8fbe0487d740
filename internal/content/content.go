// Package content turns a schedule's template into a persisted artifact.
package content

import (
	"time"

	"github.com/RezaEskandarii/reportfire/types"
)

// Request carries everything a creator needs for one execution.
type Request struct {
	Schedule types.ScheduleDefinition
	Owner    types.Owner
	Now      time.Time

	// Dailies holds the supporting daily artifacts of a weekly execution, newest first.
	Dailies []types.Artifact
}
