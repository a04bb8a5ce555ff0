// Package parseintent turns free-text user input into a validated list of
// candidate intents via the configured language model.
package parseintent

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
	"gias-workers/internal/intent"
	"gias-workers/internal/llm"
	"gias-workers/internal/llm/prompts"
)

const TaskType = "parse-intent"

// Chatter is the completion surface the handler needs.
type Chatter interface {
	Chat(ctx context.Context, req llm.ChatRequest) (string, error)
}

type Handler struct {
	config   *Config
	llm      Chatter
	registry *prompts.Registry
	parser   *intent.Parser
	profile  *intent.DomainProfile
	obs      *observability.Observability
	logger   logger.Logger
}

func NewHandler(config *Config, llmClient Chatter, registry *prompts.Registry, profile *intent.DomainProfile, obs *observability.Observability, log logger.Logger) (*Handler, error) {
	parser, err := intent.NewParser(profile)
	if err != nil {
		return nil, err
	}
	return &Handler{
		config:   config,
		llm:      llmClient,
		registry: registry,
		parser:   parser,
		profile:  profile,
		obs:      obs,
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
		}),
	}, nil
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
	if input.Text == "" {
		return nil, commonerrors.NewValidationError("input text is empty")
	}

	messages, meta, err := h.registry.Render(h.profile.PromptTemplate, nil, input.Text)
	if err != nil {
		return nil, err
	}

	opts := intent.ParseOptions{}
	if h.profile.PreserveLiterals {
		opts.RequiredEntities = input.Entities
	}

	raw, err := h.llm.Chat(ctx, llm.ChatRequest{
		Task:          "intent_parse",
		PromptVersion: meta.Version,
		Messages:      messages,
	})
	if err != nil {
		return nil, err
	}

	result, parseErr := h.parser.ParseResponse(raw, opts)

	// One fix round: re-prompt with the validation summary appended, the
	// way a human would paste the error back at the model.
	for attempt := 0; parseErr != nil && attempt < h.config.MaxFixRetries; attempt++ {
		if !commonerrors.IsFormatError(parseErr) && !commonerrors.IsValidationError(parseErr) {
			break
		}
		h.logger.Warn("response rejected, requesting fix", map[string]interface{}{
			"error": parseErr.Error(),
		})

		fixMessages := append(append([]llm.Message{}, messages...), llm.Message{
			Role: "user",
			Content: "你的上一個輸出未通過驗證。請僅輸出單一 JSON 物件，格式為 " +
				`{"candidates": [{"intent_id": "I001", "name": "...", "description": "...", "slots": {}}]}` +
				"，不得包含任何其他文字。\n驗證錯誤摘要：" + parseErr.Error(),
		})

		raw, err = h.llm.Chat(ctx, llm.ChatRequest{
			Task:          "intent_parse_fix",
			PromptVersion: meta.Version,
			Messages:      fixMessages,
		})
		if err != nil {
			return nil, err
		}
		result, parseErr = h.parser.ParseResponse(raw, opts)
	}
	if parseErr != nil {
		return nil, parseErr
	}

	h.logger.Info("intent parsed", map[string]interface{}{
		"candidates":    len(result.Candidates),
		"promptVersion": meta.Version,
	})

	return &Output{
		Candidates:    result.Candidates,
		PromptVersion: meta.Version,
	}, nil
}

// retriesFor maps the error taxonomy onto job retries. Format and
// validation failures get zero: replaying the same job yields the same
// malformed answer.
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
