// Package catalogquery serves the read-only catalog queries over the
// agent/action graph to workflow processes.
package catalogquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	commonerrors "gias-workers/internal/common/errors"
	"gias-workers/internal/common/logger"
	"gias-workers/internal/common/observability"
	"gias-workers/internal/kg"
	"gias-workers/internal/models"
)

const TaskType = "catalog-query"

// CatalogAPI dispatches a named catalog query with raw parameters.
// *kg.Catalog satisfies it.
type CatalogAPI interface {
	Dispatch(ctx context.Context, queryType models.CatalogQueryType, params map[string]interface{}) (kg.QueryResult, error)
}

type Handler struct {
	config  *Config
	catalog CatalogAPI
	obs     *observability.Observability
	logger  logger.Logger
}

func NewHandler(config *Config, catalog CatalogAPI, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		catalog: catalog,
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
	queryType := models.CatalogQueryType(input.QueryType)
	if !queryType.IsValid() {
		return nil, commonerrors.NewInvalidQueryTypeError(input.QueryType)
	}

	res, err := h.catalog.Dispatch(ctx, queryType, input.Params)
	if err != nil {
		return nil, err
	}

	h.logger.Info("catalog query served", map[string]interface{}{
		"queryType": input.QueryType,
		"count":     res.Count,
	})

	return &Output{
		QueryType: input.QueryType,
		Result:    res.Result,
		Count:     res.Count,
	}, nil
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
