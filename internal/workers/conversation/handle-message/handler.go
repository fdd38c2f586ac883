// internal/workers/conversation/handle-message/handler.go
package handlemessage

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
	"foodexpress-workers/internal/core/dialog"
	"foodexpress-workers/internal/models"
)

const (
	TaskType = "handle-message"
)

var (
	ErrInvalidMessagePayload = errors.New("INVALID_MESSAGE_PAYLOAD")
	ErrSessionLoadFailed     = errors.New("SESSION_LOAD_FAILED")
	ErrSessionSaveFailed     = errors.New("SESSION_SAVE_FAILED")
	ErrBranchLoadFailed      = errors.New("QUERY_EXECUTION_FAILED")
)

type Handler struct {
	config   *Config
	machine  *dialog.Machine
	sessions SessionStore
	branches BranchSource
	orders   OrderLookup
	logger   logger.Logger
}

func NewHandler(config *Config, machine *dialog.Machine, sessions SessionStore, branches BranchSource, orders OrderLookup, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		machine:  machine,
		sessions: sessions,
		branches: branches,
		orders:   orders,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("%w: %v", ErrInvalidMessagePayload, err))
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
	if input.CustomerID == "" {
		return nil, fmt.Errorf("%w: customerId is required", ErrInvalidMessagePayload)
	}

	sess, found, err := h.sessions.Load(ctx, input.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionLoadFailed, err)
	}
	if !found || sess.Stage.Terminal() {
		// Terminal sessions are archived by TTL; a new message starts over.
		sess = models.NewSession(input.CustomerID)
	}

	branches, err := h.branches.Branches(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBranchLoadFailed, err)
	}

	msg := dialog.Message{
		ID:                      input.MessageID,
		Text:                    input.Text,
		LanguageHint:            input.LanguageHint,
		LocationUnavailable:     input.LocationUnavailable,
		Voice:                   input.Voice,
		TranscriptionConfidence: input.TranscriptionConfidence,
	}
	if input.Latitude != nil && input.Longitude != nil {
		msg.Coordinates = &models.Coordinates{Latitude: *input.Latitude, Longitude: *input.Longitude}
	}

	sess, resp := h.machine.HandleMessage(sess, msg, branches)

	if resp.Intent == models.IntentTrackOrder {
		resp = h.enrichTracking(ctx, input.CustomerID, resp)
	}

	if err := h.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionSaveFailed, err)
	}

	h.logger.Info("message handled", map[string]interface{}{
		"customerId": input.CustomerID,
		"stage":      string(sess.Stage),
		"response":   string(resp.Type),
	})

	if sess.Stage.Terminal() {
		metrics.ConversationsEnded.WithLabelValues(string(sess.Stage)).Inc()
	}

	return &Output{
		Response:       resp,
		Stage:          sess.Stage,
		OrderConfirmed: resp.Type == models.ResponseOrderConfirmed,
	}, nil
}

// enrichTracking fills the track-order reply with the customer's latest
// order. Lookup failures degrade to the generic reply instead of failing the
// job.
func (h *Handler) enrichTracking(ctx context.Context, customerID string, resp models.Response) models.Response {
	order, err := h.orders.LatestOrder(ctx, customerID)
	if err != nil {
		h.logger.Warn("order lookup failed", map[string]interface{}{
			"customerId": customerID,
			"error":      err.Error(),
		})
		return resp
	}
	if order == nil {
		resp.Prompt = "I could not find any recent order for you. Would you like to place one?"
		return resp
	}

	eta := order.CreatedAt.Add(time.Duration(order.ETAMinutes) * time.Minute)
	remaining := int(time.Until(eta).Minutes())
	if remaining > 0 {
		resp.Prompt = fmt.Sprintf("Your order %s is on its way, about %d minutes to go.", order.OrderID, remaining)
	} else {
		resp.Prompt = fmt.Sprintf("Your order %s should have arrived. Let us know if it has not!", order.OrderID)
	}
	resp.Order = order
	return resp
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
	case errors.Is(err, ErrInvalidMessagePayload):
		errorCode = "INVALID_MESSAGE_PAYLOAD"
	case errors.Is(err, ErrSessionLoadFailed):
		errorCode = "SESSION_LOAD_FAILED"
	case errors.Is(err, ErrSessionSaveFailed):
		errorCode = "SESSION_SAVE_FAILED"
	case errors.Is(err, ErrBranchLoadFailed):
		errorCode = "QUERY_EXECUTION_FAILED"
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
