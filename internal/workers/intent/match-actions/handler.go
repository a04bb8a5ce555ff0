// Package matchactions selects the best catalog action for each sub-intent
// and emits call-style signatures for downstream prompt construction.
package matchactions

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	commonerrors "gias-workers/internal/common/errors"
	"gias-workers/internal/common/logger"
	"gias-workers/internal/common/observability"
	"gias-workers/internal/intent"
	"gias-workers/internal/models"
)

const TaskType = "match-actions"

// Matcher ranks actions for one sub-intention.
type Matcher interface {
	MatchActions(ctx context.Context, intention string, slots map[string]string) ([]intent.ActionMatch, error)
}

// CatalogSource provides the parameter specs used to build signatures and
// the action list shown to the scope gate.
type CatalogSource interface {
	ParamsOfAction(ctx context.Context, actionName string) ([]models.ParamSpec, error)
	ListActions(ctx context.Context) ([]models.ActionSummary, error)
}

// Gate vets one intention against the available actions. *intent.ScopeGate
// satisfies this; a nil gate disables the check.
type Gate interface {
	Decide(ctx context.Context, intention string, actions []models.ActionSummary) intent.ScopeDecision
}

type Handler struct {
	config  *Config
	matcher Matcher
	catalog CatalogSource
	gate    Gate
	obs     *observability.Observability
	logger  logger.Logger
}

func NewHandler(config *Config, matcher Matcher, catalog CatalogSource, gate Gate, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		matcher: matcher,
		catalog: catalog,
		gate:    gate,
		obs:     obs,
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("parse input: %w", err), 0)
		h.recordJob("error", start)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err, retriesFor(err))
		h.recordJob("error", start)
		return err
	}

	h.completeJob(client, job, output)
	h.recordJob("success", start)
	return nil
}

func (h *Handler) recordJob(status string, start time.Time) {
	ctx := context.Background()
	h.obs.RecordJobProcessed(ctx, status)
	h.obs.RecordJobDuration(ctx, time.Since(start), status)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.SubIntents) == 0 {
		return nil, commonerrors.NewValidationError("subIntents is empty")
	}

	// The gate needs the full capability list. If listing fails the gate is
	// skipped; blocking every request over a gate lookup would be worse.
	var capabilities []models.ActionSummary
	if h.gate != nil {
		var err error
		capabilities, err = h.catalog.ListActions(ctx)
		if err != nil {
			h.logger.WithError(err).Warn("action list unavailable, skipping scope gate", nil)
			capabilities = nil
		}
	}

	// Best match per action across every sub-intent.
	var outOfScope []ScopeNote
	best := make(map[string]intent.ActionMatch)
	for _, si := range input.SubIntents {
		if h.gate != nil && capabilities != nil {
			if d := h.gate.Decide(ctx, si.Text, capabilities); !d.CanExecute {
				outOfScope = append(outOfScope, ScopeNote{Text: si.Text, Reason: d.Reason})
				continue
			}
		}

		matches, err := h.matcher.MatchActions(ctx, si.Text, si.Slots)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if prev, ok := best[m.Name]; !ok || m.FinalScore > prev.FinalScore {
				best[m.Name] = m
			}
		}
	}

	bindings := make([]ActionBinding, 0, len(best))
	for name, m := range best {
		signature, err := h.signature(ctx, name)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, ActionBinding{
			Name:        name,
			Signature:   signature,
			Description: m.Description,
			Match:       m,
		})
	}

	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].Match.FinalScore > bindings[j].Match.FinalScore
	})

	h.logger.Info("actions matched", map[string]interface{}{
		"subIntents": len(input.SubIntents),
		"actions":    len(bindings),
		"outOfScope": len(outOfScope),
	})

	return &Output{Actions: bindings, OutOfScope: outOfScope}, nil
}

// signature renders an action as Name(ParamKey, OtherID, ...) from its
// declared parameters.
func (h *Handler) signature(ctx context.Context, actionName string) (string, error) {
	params, err := h.catalog.ParamsOfAction(ctx, actionName)
	if err != nil {
		return "", err
	}

	keys := make([]string, 0, len(params))
	for _, p := range params {
		if p.Key != "" {
			keys = append(keys, formatParamKey(p.Key))
		}
	}
	return fmt.Sprintf("%s(%s)", actionName, strings.Join(keys, ", ")), nil
}

// formatParamKey camel-cases a snake_case key, upper-casing the id segment:
// booth_id -> BoothID.
func formatParamKey(key string) string {
	parts := strings.Split(key, "_")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if strings.EqualFold(part, "id") {
			out = append(out, "ID")
			continue
		}
		out = append(out, strings.ToUpper(part[:1])+part[1:])
	}
	if len(out) == 0 {
		return "Param"
	}
	return strings.Join(out, "")
}

func retriesFor(err error) int32 {
	var stdErr *commonerrors.StandardError
	if commonerrors.As(err, &stdErr) {
		return int32(commonerrors.GetRetryCount(stdErr.Code))
	}
	return 0
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, retries int32) {
	errorCode := "UNKNOWN_ERROR"
	var stdErr *commonerrors.StandardError
	if commonerrors.As(err, &stdErr) {
		errorCode = string(stdErr.Code)
	}

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
	})

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
