package registration

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"registration/internal/config"
	"registration/internal/constants"
	"registration/internal/logger"
	pkgerrors "registration/pkg/errors"
	"registration/pkg/logging"
	"registration/pkg/metrics"
	"registration/pkg/models"
	"registration/pkg/tracing"
)

// EventPublisher is the slice of the event bus the workflow needs.
type EventPublisher interface {
	Publish(ctx context.Context, busID string, event models.DomainEvent) error
}

// Orchestrator executes the registration saga as a single deterministic
// pass: Register, SaveRecord, ArchiveObject, PublishEvent. Steps run
// strictly in order, no step is retried internally, and side effects of
// completed steps are never compensated. Re-driving the whole workflow is
// safe because SaveRecord is an upsert and every publish mints a fresh
// correlation id.
type Orchestrator struct {
	store     RecordStore
	archive   ObjectArchive
	publisher EventPublisher
	cfg       config.WorkflowConfig
	log       logger.Logger
	now       func() time.Time
}

func NewOrchestrator(store RecordStore, archive ObjectArchive, publisher EventPublisher, cfg config.WorkflowConfig, log logger.Logger) *Orchestrator {
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = constants.DefaultStepTimeout
	}
	if cfg.ArchivePolicy == "" {
		cfg.ArchivePolicy = constants.ArchivePolicyDegrade
	}

	return &Orchestrator{
		store:     store,
		archive:   archive,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Execute runs the step chain for one registration request. raw is the
// exact inbound request body; when nil the request is re-marshalled so the
// archive and the published event still carry a faithful copy.
func (o *Orchestrator) Execute(ctx context.Context, req RegistrationRequest, raw json.RawMessage) Outcome {
	ctx, span := tracing.GetTracer("registration-workflow").Start(ctx, "workflow.execute")
	defer span.End()

	if raw == nil {
		raw, _ = json.Marshal(req)
	}

	// Register: no I/O. Establishes the execution identity and the entered
	// timestamp that later steps reuse for consistent key derivation.
	executionID := uuid.New().String()
	enteredAt := o.now()

	ctx = logging.WithExecutionID(ctx, executionID)
	ctx = logging.WithCustomerID(ctx, req.ID)

	outcome := Outcome{
		Status:      StatusSucceeded,
		ExecutionID: executionID,
		EnteredAt:   enteredAt,
	}

	o.log.InfowCtx(ctx, "Workflow started")

	if err := o.runStep(ctx, StepSaveRecord, pkgerrors.ErrPersistence, func(stepCtx context.Context) error {
		record := NewCustomerRecord(req, o.now())
		return o.store.Put(stepCtx, record)
	}); err != nil {
		return o.fail(ctx, outcome, StepSaveRecord, err)
	}

	var archiveErr error
	if err := o.runStep(ctx, StepArchiveObject, pkgerrors.ErrArchive, func(stepCtx context.Context) error {
		key := enteredAt.UTC().Format(time.RFC3339Nano)
		return o.archive.Put(stepCtx, key, raw)
	}); err != nil {
		if o.cfg.ArchivePolicy == constants.ArchivePolicyStrict {
			return o.fail(ctx, outcome, StepArchiveObject, err)
		}
		// Degraded mode: the archive copy is secondary to the structured
		// record, keep going and surface a partial success.
		archiveErr = err
		o.log.WarnwCtx(ctx, "Archive step failed, continuing in degraded mode",
			"error", err,
		)
	}

	event := models.NewDomainEvent(
		constants.EventSourceCustomerCreated,
		constants.EventDetailTypeRegistration,
		executionID,
		enteredAt,
		raw,
	)
	outcome.CorrelationID = event.Metadata.CorrelationID
	ctx = logging.WithCorrelationID(ctx, event.Metadata.CorrelationID)

	if err := o.runStep(ctx, StepPublishEvent, pkgerrors.ErrPublish, func(stepCtx context.Context) error {
		return o.publisher.Publish(stepCtx, constants.CompanyBus, event)
	}); err != nil {
		// The record and archive writes stay in place; a missing event is
		// recovered by replay, not by undoing the persistence.
		outcome.Status = StatusPartiallySucceeded
		outcome.FailedStep = StepPublishEvent
		outcome.Err = err
		metrics.IncWorkflowExecution(string(StatusPartiallySucceeded))
		o.log.ErrorwCtx(ctx, "Publish step failed, side effects retained",
			"error", err,
		)
		return outcome
	}

	if archiveErr != nil {
		outcome.Status = StatusPartiallySucceeded
		outcome.FailedStep = StepArchiveObject
		outcome.Err = archiveErr
		metrics.IncWorkflowExecution(string(StatusPartiallySucceeded))
		return outcome
	}

	metrics.IncWorkflowExecution(string(StatusSucceeded))
	o.log.InfowCtx(ctx, "Workflow succeeded")
	return outcome
}

// runStep runs one external call with the configured per-step timeout.
// Cancellation is honored between steps only; an issued call always runs to
// completion so there is never an unobserved partial effect.
func (o *Orchestrator) runStep(ctx context.Context, step Step, code *pkgerrors.Error, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return code.WithCause(err).WithDetail("message", "workflow cancelled before step started")
	}

	stepCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	defer cancel()

	start := time.Now()
	err := fn(stepCtx)
	status := "ok"
	if err != nil {
		status = "failed"
	}
	metrics.ObserveWorkflowStepDuration(string(step), status, time.Since(start))

	if err == nil {
		return nil
	}

	if !pkgerrors.Is(err, code) {
		err = pkgerrors.Wrap(err, code)
	}
	metrics.IncWorkflowStepFailure(string(step), pkgerrors.Code(err))
	return err
}

func (o *Orchestrator) fail(ctx context.Context, outcome Outcome, step Step, err error) Outcome {
	outcome.Status = StatusFailed
	outcome.FailedStep = step
	outcome.Err = err

	metrics.IncWorkflowExecution(string(StatusFailed))
	o.log.ErrorwCtx(ctx, "Workflow failed",
		"step", string(step),
		"error", err,
	)
	return outcome
}
