package content

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/RezaEskandarii/reportfire/types"
	"github.com/cockroachdb/errors"
)

var funcs = template.FuncMap{
	"join":  strings.Join,
	"upper": strings.ToUpper,
	"date":  func(t time.Time) string { return t.Format("2006-01-02") },
}

type templateData struct {
	Owner     types.Owner
	Company   string
	Tags      []string
	Date      time.Time
	PeriodEnd time.Time
	Dailies   []types.Artifact
}

// TemplateCreator renders the schedule template with text/template and stores the result.
type TemplateCreator struct {
	artifacts store.ArtifactStore
}

func NewTemplateCreator(artifacts store.ArtifactStore) *TemplateCreator {
	return &TemplateCreator{artifacts: artifacts}
}

func (c *TemplateCreator) CreateDailyArtifact(ctx context.Context, req Request) (*types.Artifact, error) {
	local := req.Now.In(req.Schedule.Location())
	title := fmt.Sprintf("Daily report %s", local.Format("2006-01-02"))
	return c.create(ctx, req, state.ContentDaily, title, templateData{
		Owner:     req.Owner,
		Company:   deref(req.Schedule.CompanyID),
		Tags:      req.Schedule.Tags,
		Date:      local,
		PeriodEnd: local,
	})
}

func (c *TemplateCreator) CreateWeeklyArtifact(ctx context.Context, req Request) (*types.Artifact, error) {
	local := req.Now.In(req.Schedule.Location())
	start := local.AddDate(0, 0, -7)
	title := fmt.Sprintf("Weekly report %s to %s", start.Format("2006-01-02"), local.Format("2006-01-02"))
	return c.create(ctx, req, state.ContentWeekly, title, templateData{
		Owner:     req.Owner,
		Company:   deref(req.Schedule.CompanyID),
		Tags:      req.Schedule.Tags,
		Date:      start,
		PeriodEnd: local,
		Dailies:   req.Dailies,
	})
}

func (c *TemplateCreator) create(ctx context.Context, req Request, kind state.ContentKind, title string, data templateData) (*types.Artifact, error) {
	body, err := render(req.Schedule.Template, data)
	if err != nil {
		return nil, err
	}

	scheduleID := req.Schedule.ID
	artifact := &types.Artifact{
		OwnerID:    req.Owner.ID,
		CompanyID:  req.Schedule.CompanyID,
		ScheduleID: &scheduleID,
		Kind:       kind,
		Title:      title,
		Body:       body,
		Tags:       append([]string(nil), req.Schedule.Tags...),
	}
	if err := c.artifacts.Save(ctx, artifact); err != nil {
		return nil, errors.Wrap(err, "save artifact")
	}
	return artifact, nil
}

func render(text string, data templateData) (string, error) {
	tmpl, err := template.New("schedule").Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", errors.Wrap(err, "parse template")
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "render template")
	}
	body := strings.TrimSpace(buf.String())
	if body == "" {
		return "", errors.New("template rendered empty content")
	}
	return body, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
