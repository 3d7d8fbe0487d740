package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/RezaEskandarii/reportfire/custom_errors"
	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/types"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

const dateLayout = "2006-01-02"

type ScheduleHandler struct {
	svc    ScheduleService
	logger logger.Logger
}

func NewScheduleHandler(svc ScheduleService, log logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, logger: log}
}

type scheduleRequest struct {
	OwnerID          string             `json:"ownerId"`
	ContentKind      state.ContentKind  `json:"contentKind"`
	Template         string             `json:"template"`
	CompanyID        *string            `json:"companyId"`
	Tags             []string           `json:"tags"`
	Recipients       []string           `json:"recipients"`
	SendNotification bool               `json:"sendNotification"`
	ScheduleType     state.ScheduleType `json:"scheduleType"`
	ScheduledTime    string             `json:"scheduledTime"`
	ScheduledDate    string             `json:"scheduledDate"` // YYYY-MM-DD
	DayOfWeek        *int               `json:"dayOfWeek"`
	DayOfMonth       *int               `json:"dayOfMonth"`
	Timezone         string             `json:"timezone"`
}

func (r scheduleRequest) definition() (types.ScheduleDefinition, error) {
	def := types.ScheduleDefinition{
		OwnerID:          r.OwnerID,
		ContentKind:      r.ContentKind,
		Template:         r.Template,
		CompanyID:        r.CompanyID,
		Tags:             pq.StringArray(r.Tags),
		Recipients:       pq.StringArray(r.Recipients),
		SendNotification: r.SendNotification,
		ScheduleType:     r.ScheduleType,
		ScheduledTime:    r.ScheduledTime,
		DayOfWeek:        r.DayOfWeek,
		DayOfMonth:       r.DayOfMonth,
		Timezone:         r.Timezone,
	}
	if r.ScheduledDate != "" {
		d, err := parseDate(r.ScheduledDate)
		if err != nil {
			return def, err
		}
		def.ScheduledDate = &d
	}
	return def, nil
}

// patchRequest leaves absent fields unchanged. Nullable fields cannot be cleared through it.
type patchRequest struct {
	ContentKind      *state.ContentKind  `json:"contentKind"`
	Template         *string             `json:"template"`
	CompanyID        *string             `json:"companyId"`
	Tags             *[]string           `json:"tags"`
	Recipients       *[]string           `json:"recipients"`
	SendNotification *bool               `json:"sendNotification"`
	ScheduleType     *state.ScheduleType `json:"scheduleType"`
	ScheduledTime    *string             `json:"scheduledTime"`
	ScheduledDate    *string             `json:"scheduledDate"`
	DayOfWeek        *int                `json:"dayOfWeek"`
	DayOfMonth       *int                `json:"dayOfMonth"`
	Timezone         *string             `json:"timezone"`
}

func (r patchRequest) patch() (types.SchedulePatch, error) {
	p := types.SchedulePatch{
		ContentKind:      r.ContentKind,
		Template:         r.Template,
		Tags:             r.Tags,
		Recipients:       r.Recipients,
		SendNotification: r.SendNotification,
		ScheduleType:     r.ScheduleType,
		ScheduledTime:    r.ScheduledTime,
		Timezone:         r.Timezone,
	}
	if r.CompanyID != nil {
		p.CompanyID = &r.CompanyID
	}
	if r.DayOfWeek != nil {
		p.DayOfWeek = &r.DayOfWeek
	}
	if r.DayOfMonth != nil {
		p.DayOfMonth = &r.DayOfMonth
	}
	if r.ScheduledDate != nil {
		d, err := parseDate(*r.ScheduledDate)
		if err != nil {
			return p, err
		}
		date := &d
		p.ScheduledDate = &date
	}
	return p, nil
}

func parseDate(value string) (time.Time, error) {
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		v := &custom_errors.ValidationError{}
		v.AddField("scheduledDate", "must be YYYY-MM-DD, got %q", value)
		return time.Time{}, v
	}
	return d, nil
}

func (h *ScheduleHandler) Create(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	def, err := req.definition()
	if err != nil {
		respondError(c, h.logger, "Failed to create schedule", err)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), def)
	if err != nil {
		respondError(c, h.logger, "Failed to create schedule", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ScheduleHandler) Get(c *gin.Context) {
	def, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "Failed to load schedule", err)
		return
	}
	c.JSON(http.StatusOK, def)
}

func (h *ScheduleHandler) ListByOwner(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner query parameter is required"})
		return
	}
	page, size := getPage(c)

	res, err := h.svc.ListByOwner(c.Request.Context(), owner, page, size)
	if err != nil {
		respondError(c, h.logger, "Failed to list schedules", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ScheduleHandler) Update(c *gin.Context) {
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	patch, err := req.patch()
	if err != nil {
		respondError(c, h.logger, "Failed to update schedule", err)
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, "Failed to update schedule", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *ScheduleHandler) Toggle(c *gin.Context) {
	def, err := h.svc.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "Failed to toggle schedule", err)
		return
	}
	c.JSON(http.StatusOK, def)
}

func (h *ScheduleHandler) Delete(c *gin.Context) {
	purge, _ := strconv.ParseBool(c.Query("purgeHistory"))
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), purge); err != nil {
		respondError(c, h.logger, "Failed to delete schedule", err)
		return
	}
	c.Status(http.StatusNoContent)
}
