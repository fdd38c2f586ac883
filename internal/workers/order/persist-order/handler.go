// internal/workers/order/persist-order/handler.go
package persistorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "foodexpress-workers/internal/common/errors"
	"foodexpress-workers/internal/common/logger"
	"foodexpress-workers/internal/common/metrics"
)

const (
	TaskType = "persist-order"
)

var (
	ErrOrderPersistFailed  = errors.New("ORDER_PERSIST_FAILED")
	ErrInvalidOrderPayload = errors.New("INVALID_MESSAGE_PAYLOAD")
)

type Handler struct {
	config *Config
	store  OrderStore
	cache  StatusCache
	logger logger.Logger
}

func NewHandler(config *Config, store OrderStore, cache StatusCache, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	order := input.Order
	if order.OrderID == "" {
		return nil, fmt.Errorf("%w: orderId is required", ErrInvalidOrderPayload)
	}
	if order.CustomerID == "" {
		return nil, fmt.Errorf("%w: customerId is required", ErrInvalidOrderPayload)
	}
	if len(order.Lines) == 0 {
		return nil, fmt.Errorf("%w: order has no lines", ErrInvalidOrderPayload)
	}
	if order.TotalPrice < 0 {
		return nil, fmt.Errorf("%w: negative total", ErrInvalidOrderPayload)
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	duplicate := false
	err := h.store.SaveOrder(ctx, order)
	switch {
	case errors.Is(err, ErrAlreadyPersisted):
		// Replayed job; the first write already holds the truth.
		duplicate = true
		h.logger.Warn("duplicate order ignored", map[string]interface{}{
			"orderId": order.OrderID,
		})
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrOrderPersistFailed, err)
	}

	if h.cache != nil {
		if err := h.cache.SetStatus(ctx, order.OrderID, StatusConfirmed, h.config.StatusCacheTTL); err != nil {
			// Tracking falls back to Postgres when the cache is cold.
			h.logger.Warn("status cache write failed", map[string]interface{}{
				"orderId": order.OrderID,
				"error":   err.Error(),
			})
		}
	}

	h.logger.Info("order persisted", map[string]interface{}{
		"orderId":    order.OrderID,
		"customerId": order.CustomerID,
		"branchId":   order.BranchID,
		"totalPrice": order.TotalPrice,
		"duplicate":  duplicate,
	})

	result := "persisted"
	if duplicate {
		result = "duplicate"
	}
	metrics.OrdersPersisted.WithLabelValues(result).Inc()

	return &Output{
		OrderID:   order.OrderID,
		Duplicate: duplicate,
		Status:    StatusConfirmed,
	}, nil
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
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	errorCode := "UNKNOWN_ERROR"
	switch {
	case errors.Is(err, ErrInvalidOrderPayload):
		errorCode = "INVALID_MESSAGE_PAYLOAD"
	case errors.Is(err, ErrOrderPersistFailed):
		errorCode = "ORDER_PERSIST_FAILED"
	}

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
	})

	retries := int32(apperrors.GetRetryCount(apperrors.ErrorCode(errorCode)))
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
