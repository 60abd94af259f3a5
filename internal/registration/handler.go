package registration

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"registration/internal/config"
	"registration/internal/logger"
	"registration/pkg/errors"
	"registration/pkg/metrics"
	"registration/pkg/retry"
)

// Workflow is what the ingress layer needs from the orchestrator.
type Workflow interface {
	Execute(ctx context.Context, req RegistrationRequest, raw json.RawMessage) Outcome
}

type Handler struct {
	workflow Workflow
	redrive  config.RedriveConfig
	logger   logger.Logger
}

func NewHandler(workflow Workflow, redrive config.RedriveConfig, log logger.Logger) *Handler {
	return &Handler{
		workflow: workflow,
		redrive:  redrive,
		logger:   log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/v1")
	{
		v1.POST("/customers", h.CreateCustomer)
	}
}

// CreateCustomer accepts a registration payload and drives the workflow.
// Failed outcomes are optionally re-driven whole; the idempotent upsert and
// fresh correlation ids make re-execution safe.
func (h *Handler) CreateCustomer(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		h.handleError(c, errors.Wrap(err, errors.ErrValidation))
		return
	}

	var req RegistrationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.handleError(c, errors.Wrap(err, errors.ErrValidation))
		return
	}

	if req.ID == "" {
		h.handleError(c, errors.ErrValidation.WithDetail("message", "id is required"))
		return
	}

	outcome := h.execute(c.Request.Context(), req, raw)

	switch outcome.Status {
	case StatusSucceeded:
		c.JSON(http.StatusCreated, gin.H{
			"status":         string(outcome.Status),
			"execution_id":   outcome.ExecutionID,
			"correlation_id": outcome.CorrelationID,
		})
	case StatusPartiallySucceeded:
		c.JSON(http.StatusOK, gin.H{
			"status":         string(outcome.Status),
			"execution_id":   outcome.ExecutionID,
			"correlation_id": outcome.CorrelationID,
			"failed_step":    string(outcome.FailedStep),
			"error_code":     errors.Code(outcome.Err),
		})
	default:
		h.logger.ErrorwCtx(c.Request.Context(), "Registration workflow failed",
			"customer_id", req.ID,
			"failed_step", string(outcome.FailedStep),
			"error", outcome.Err,
		)
		status := errors.ToHTTPStatus(outcome.Err)
		response := errors.ToErrorResponse(outcome.Err)
		response["failed_step"] = string(outcome.FailedStep)
		c.JSON(status, response)
	}
}

func (h *Handler) execute(ctx context.Context, req RegistrationRequest, raw json.RawMessage) Outcome {
	if h.redrive.MaxAttempts <= 1 {
		return h.workflow.Execute(ctx, req, raw)
	}

	policy := retry.Policy{
		MaxAttempts:     h.redrive.MaxAttempts,
		InitialInterval: h.redrive.InitialInterval,
		MaxInterval:     h.redrive.MaxInterval,
		Multiplier:      h.redrive.Multiplier,
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = 100 * time.Millisecond
	}
	if policy.MaxInterval <= 0 {
		policy.MaxInterval = 2 * time.Second
	}
	if policy.Multiplier <= 0 {
		policy.Multiplier = 2.0
	}

	var outcome Outcome
	_ = retry.RetryWithCallback(ctx, policy, func() error {
		outcome = h.workflow.Execute(ctx, req, raw)
		if outcome.Status == StatusFailed {
			return outcome.Err
		}
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		metrics.RedriveAttemptsTotal.WithLabelValues(string(outcome.FailedStep)).Inc()
		h.logger.WarnwCtx(ctx, "Re-driving registration workflow",
			"customer_id", req.ID,
			"attempt", attempt,
			"next_delay_ms", nextDelay.Milliseconds(),
			"error", err,
		)
	})

	return outcome
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error",
		"error", err,
		"path", c.Request.URL.Path,
	)

	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}
