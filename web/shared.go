package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/RezaEskandarii/reportfire/custom_errors"
	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/RezaEskandarii/reportfire/types"
	"github.com/gin-gonic/gin"
)

const PageSize = 20

// ScheduleService is the subset of client.ScheduleManager the API needs.
type ScheduleService interface {
	Create(ctx context.Context, def types.ScheduleDefinition) (*types.ScheduleDefinition, error)
	Update(ctx context.Context, id string, patch types.SchedulePatch) (*types.ScheduleDefinition, error)
	Toggle(ctx context.Context, id string) (*types.ScheduleDefinition, error)
	Delete(ctx context.Context, id string, purgeHistory bool) error
	Get(ctx context.Context, id string) (*types.ScheduleDefinition, error)
	ListByOwner(ctx context.Context, ownerID string, page, pageSize int) (*types.PaginationResult[types.ScheduleDefinition], error)
	ListHistory(ctx context.Context, scheduleID string, page, pageSize int) (*types.PaginationResult[types.ExecutionHistoryEntry], error)
	ListOwnerHistory(ctx context.Context, ownerID string, status state.ExecutionStatus, page, pageSize int) (*types.PaginationResult[types.ExecutionHistoryEntry], error)
	DeleteHistoryEntry(ctx context.Context, ownerID, entryID string) error
	DeleteScheduleHistory(ctx context.Context, ownerID, scheduleID string) (int64, error)
}

func getPage(c *gin.Context) (int, int) {
	return queryInt(c, "page", 1), queryInt(c, "pageSize", PageSize)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// respondError maps validation failures to 400, missing rows to 404 and version conflicts to 409.
func respondError(c *gin.Context, log logger.Logger, msg string, err error) {
	var verr *custom_errors.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": fieldErrors(verr)})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Schedule changed or is executing, retry"})
	default:
		log.Error(msg, logger.String("path", c.Request.URL.Path), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func fieldErrors(verr *custom_errors.ValidationError) []custom_errors.FieldError {
	out := make([]custom_errors.FieldError, 0, len(verr.Errors))
	for _, err := range verr.Errors {
		var fe custom_errors.FieldError
		if errors.As(err, &fe) {
			out = append(out, fe)
			continue
		}
		out = append(out, custom_errors.FieldError{Message: err.Error()})
	}
	return out
}
