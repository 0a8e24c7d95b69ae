// internal/intake/engine.go

// Package intake is the conversational intake engine. One engine invocation
// processes one turn synchronously and is a pure function of the message,
// the transcript, and the organization's payment policy.
package intake

import (
	"context"
	"fmt"
	"time"

	commonerrors "intake-workers/internal/common/errors"
	"intake-workers/internal/common/logger"
	"intake-workers/internal/common/metrics"
	"intake-workers/internal/intake/dispatch"
	"intake-workers/internal/intake/orchestrator"
	"intake-workers/internal/intake/router"
	"intake-workers/internal/models"
)

type Engine struct {
	router       *router.Router
	orchestrator *orchestrator.Orchestrator
	assembler    *dispatch.Assembler
	logger       logger.Logger
}

func NewEngine(r *router.Router, o *orchestrator.Orchestrator, log logger.Logger) *Engine {
	return &Engine{
		router:       r,
		orchestrator: o,
		assembler:    dispatch.NewAssembler(log),
		logger: log.With(map[string]interface{}{
			"component": "intake-engine",
		}),
	}
}

// ProcessTurn runs one turn through classify, decide, and assemble. It
// never returns an error: any panic is converted into a safe ChainResult
// with the diagnostic kept in metadata.
func (e *Engine) ProcessTurn(ctx context.Context, chainCtx models.ChainContext) (result models.ChainResult) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			stdErr := commonerrors.NewTurnProcessingFailedError(fmt.Sprintf("%v", rec))
			e.logger.Error("turn processing panicked", map[string]interface{}{
				"sessionId": chainCtx.SessionID,
				"panic":     fmt.Sprintf("%v", rec),
			})
			metrics.TurnsRecovered.WithLabelValues(string(stdErr.Code)).Inc()
			result = dispatch.SafeResult(stdErr.Error())
		}
		metrics.TurnsProcessed.WithLabelValues(string(result.Workflow)).Inc()
		metrics.TurnDuration.WithLabelValues(string(result.Workflow)).Observe(time.Since(start).Seconds())
	}()

	classification := e.router.Classify(ctx, chainCtx.Message, chainCtx.Messages)

	e.logger.Debug("turn classified", map[string]interface{}{
		"sessionId":  chainCtx.SessionID,
		"workflow":   string(classification.Workflow),
		"matterType": classification.MatterType,
	})

	if classification.Workflow == models.WorkflowMatterCreation {
		decision := e.orchestrator.Decide(ctx, chainCtx, classification)
		return e.assembler.Assemble(chainCtx, classification, decision)
	}
	return e.assembler.AssembleStub(chainCtx, classification)
}
