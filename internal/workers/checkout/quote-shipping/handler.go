package quoteshipping

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/common/validation"
	"storefront-workers/internal/shipping"
)

const TaskType = "quote-shipping"

type Quoter interface {
	Quote(ctx context.Context, req shipping.QuoteRequest) (shipping.QuoteResponse, error)
}

type Handler struct {
	config       *Config
	quoter       Quoter
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, quoter Quoter, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		quoter:       quoter,
		errorHandler: apperrors.NewErrorHandler(scoped),
		logger:       scoped,
		now:          time.Now,
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

	h.completeJob(ctx, client, job, output)
}

// Execute quotes shipping for input. Upstream trouble never surfaces here;
// the gateway answers from the fallback table instead.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// parseInput checks the job variables against the same schema as the
// checkout endpoint before decoding them.
func (h *Handler) parseInput(variables string) (*Input, error) {
	result, err := validation.ShippingQuoteRequest.ValidateBytes([]byte(variables))
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
	if input == nil {
		return nil, apperrors.NewInvalidPayloadError("input cannot be nil")
	}

	resp, err := h.quoter.Quote(ctx, shipping.QuoteRequest{
		Recipient: input.Recipient,
		Items:     input.Items,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("shipping quoted", map[string]interface{}{
		"orderId": input.OrderID,
		"source":  resp.Source,
		"options": len(resp.Options),
	})

	return &Output{
		ShippingOptions: resp.Options,
		TTLSeconds:      resp.TTLSeconds,
		QuoteSource:     resp.Source,
		QuotedAt:        h.now().UTC().Format(time.RFC3339),
	}, nil
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
