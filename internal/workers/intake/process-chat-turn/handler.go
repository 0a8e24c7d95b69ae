// internal/workers/intake/process-chat-turn/handler.go
package processchatturn

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"intake-workers/internal/intake"
	"intake-workers/internal/models"
)

const (
	TaskType = "process-chat-turn"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config *Config
	engine *intake.Engine
	logger Logger
}

func NewHandler(config *Config, engine *intake.Engine, log Logger) *Handler {
	return &Handler{
		config: config,
		engine: engine,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("parse input: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	// The engine never fails: every turn yields a valid result, so the job
	// always completes once the input parses.
	output := h.execute(ctx, &input)
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	result := h.engine.ProcessTurn(ctx, models.ChainContext{
		OrganizationID: input.OrganizationID,
		SessionID:      input.SessionID,
		Message:        input.Message,
		Messages:       input.Messages,
	})

	h.logger.Info("turn processed", map[string]interface{}{
		"sessionId":   input.SessionID,
		"workflow":    string(result.Workflow),
		"actionCount": len(result.Actions),
	})

	return &Output{
		Workflow: string(result.Workflow),
		Response: result.Response,
		Actions:  result.Actions,
		Metadata: result.Metadata,
	}
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

	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey": job.Key,
		"error":  err.Error(),
	})

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(0).
		ErrorMessage("INVALID_JOB_VARIABLES: " + err.Error()).
		Send(context.Background())
}

func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	return h.execute(ctx, input)
}
