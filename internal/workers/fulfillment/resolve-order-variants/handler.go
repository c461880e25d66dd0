package resolveordervariants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/common/validation"
	"storefront-workers/internal/notify"
	"storefront-workers/internal/variant"
)

const (
	TaskType = "resolve-order-variants"

	bpmnUnresolvedVariant = "UNRESOLVED_VARIANT"
)

// Resolver maps one line item descriptor to a fulfillment variant.
type Resolver interface {
	Resolve(ctx context.Context, d variant.Descriptor) (variant.ResolvedVariant, error)
}

// Notifier alerts operators about unresolved lines.
type Notifier interface {
	NotifyUnresolved(ctx context.Context, alert notify.Alert) error
}

type Handler struct {
	config       *Config
	resolver     Resolver
	notifier     Notifier
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
	newBatchID   func() string
}

// NewHandler builds the worker. notifier may be nil.
func NewHandler(config *Config, resolver Resolver, notifier Notifier, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		resolver:     resolver,
		notifier:     notifier,
		errorHandler: apperrors.NewErrorHandler(scoped),
		logger:       scoped,
		newBatchID:   uuid.NewString,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	if !output.AllResolved {
		h.alertOperators(ctx, output)
		h.throwUnresolved(ctx, client, job, output)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// Execute resolves every line of an order. Resolution failures are reported
// per line in the output; catalog or internal failures abort the batch.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	result, err := validation.ResolveOrderVariantsInput.ValidateBytes([]byte(variables))
	if err != nil {
		return nil, apperrors.NewInvalidPayloadError(fmt.Sprintf("parse input: %v", err))
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidPayloadError(result.Summary())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidPayloadError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.OrderID == "" {
		return nil, apperrors.NewInvalidPayloadError("orderId is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.NewInvalidPayloadError("items must not be empty")
	}

	type lineResult struct {
		resolved variant.ResolvedVariant
		err      error
	}
	results := make([]lineResult, len(input.Items))

	g, gctx := errgroup.WithContext(ctx)
	if h.config.Concurrency > 0 {
		g.SetLimit(h.config.Concurrency)
	}
	for i, item := range input.Items {
		g.Go(func() error {
			rv, err := h.resolver.Resolve(gctx, item.Descriptor)
			if err != nil && !isLineError(err) {
				return fmt.Errorf("line %d: %w", i, err)
			}
			results[i] = lineResult{resolved: rv, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	output := &Output{
		OrderID:         input.OrderID,
		BatchID:         h.newBatchID(),
		ResolvedItems:   make([]ResolvedItem, 0, len(input.Items)),
		UnresolvedItems: make([]UnresolvedItem, 0),
	}
	for i, item := range input.Items {
		res := results[i]
		if res.err != nil {
			output.UnresolvedItems = append(output.UnresolvedItems, toUnresolved(i, item, res.err))
			continue
		}
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		output.ResolvedItems = append(output.ResolvedItems, ResolvedItem{
			Index:           i,
			LineID:          item.LineID,
			Descriptor:      item.Descriptor.String(),
			Quantity:        quantity,
			ResolvedVariant: res.resolved,
		})
	}
	output.AllResolved = len(output.UnresolvedItems) == 0

	h.logger.Info("order variants resolved", map[string]interface{}{
		"orderId":    output.OrderID,
		"batchId":    output.BatchID,
		"resolved":   len(output.ResolvedItems),
		"unresolved": len(output.UnresolvedItems),
	})
	return output, nil
}

// isLineError reports whether err is specific to one line item rather than
// the catalog as a whole.
func isLineError(err error) bool {
	return errors.Is(err, apperrors.ErrMalformedDescriptor) ||
		errors.Is(err, apperrors.ErrUnknownProductType) ||
		errors.Is(err, apperrors.ErrUnresolvedVariant)
}

func toUnresolved(index int, item LineItem, err error) UnresolvedItem {
	stdErr := apperrors.AsStandard(err)
	productID, _ := stdErr.Metadata["productId"].(string)
	return UnresolvedItem{
		Index:      index,
		LineID:     item.LineID,
		Descriptor: item.Descriptor.String(),
		ErrorCode:  string(stdErr.Code),
		Message:    stdErr.Message,
		ProductID:  productID,
	}
}

func (h *Handler) alertOperators(ctx context.Context, output *Output) {
	if h.notifier == nil {
		return
	}

	alert := notify.Alert{OrderID: output.OrderID, BatchID: output.BatchID}
	for _, u := range output.UnresolvedItems {
		alert.Lines = append(alert.Lines, notify.UnresolvedLine{
			Index:      u.Index,
			Descriptor: u.Descriptor,
			ErrorCode:  u.ErrorCode,
			Message:    u.Message,
			ProductID:  u.ProductID,
		})
	}

	// The BPMN error below halts submission either way; a lost alert is logged only.
	if err := h.notifier.NotifyUnresolved(ctx, alert); err != nil {
		h.logger.Error("operator alert failed", map[string]interface{}{
			"orderId": output.OrderID,
			"error":   err.Error(),
		})
	}
}

func (h *Handler) throwUnresolved(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnUnresolvedVariant).Inc()
	h.logger.Warn("order has unresolved lines", map[string]interface{}{
		"jobKey":     job.Key,
		"orderId":    output.OrderID,
		"unresolved": len(output.UnresolvedItems),
	})

	msg := fmt.Sprintf("%d of %d line items could not be resolved",
		len(output.UnresolvedItems), len(output.UnresolvedItems)+len(output.ResolvedItems))
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnUnresolvedVariant).
		ErrorMessage(msg)

	vars, err := json.Marshal(output)
	if err == nil {
		if withVars, err := cmd.VariablesFromString(string(vars)); err == nil {
			if _, err := withVars.Send(ctx); err != nil {
				h.logger.Error("failed to throw error", map[string]interface{}{"error": err.Error()})
			}
			return
		}
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Code(err))).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
