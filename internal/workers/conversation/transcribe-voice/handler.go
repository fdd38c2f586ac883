// internal/workers/conversation/transcribe-voice/handler.go
package transcribevoice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "foodexpress-workers/internal/common/errors"
	"foodexpress-workers/internal/common/logger"
	"foodexpress-workers/internal/common/metrics"
)

const (
	TaskType = "transcribe-voice"
)

var (
	ErrTranscriptionFailed  = errors.New("TRANSCRIPTION_FAILED")
	ErrTranscriptionTimeout = errors.New("TRANSCRIPTION_TIMEOUT")
)

type Handler struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
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
	if input.AudioURL == "" {
		return nil, fmt.Errorf("%w: audioUrl is required", ErrTranscriptionFailed)
	}

	requestBody := map[string]interface{}{
		"audio_url": input.AudioURL,
		"model":     h.config.Model,
	}
	if input.Language != "" {
		requestBody["language"] = input.Language
	}

	body, _ := json.Marshal(requestBody)

	// Built fresh per attempt: a retry must not reuse a request whose body
	// reader was already drained by the previous send.
	newRequest := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, "POST", h.config.BaseURL+"/v1/audio/transcriptions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if h.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+h.config.APIKey)
		}
		return req, nil
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrTranscriptionTimeout
			}
		}

		req, err := newRequest()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
		}
		resp, lastErr = h.client.Do(req)

		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return nil, ErrTranscriptionTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTranscriptionTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, lastErr)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrTranscriptionFailed)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrTranscriptionFailed, err)
	}

	output := &Output{
		Text:          apiResponse.Text,
		Confidence:    apiResponse.Confidence,
		LowConfidence: apiResponse.Confidence < h.config.MinConfidence,
	}

	h.logger.Info("audio transcribed", map[string]interface{}{
		"confidence":    apiResponse.Confidence,
		"lowConfidence": output.LowConfidence,
		"chars":         len(apiResponse.Text),
	})

	return output, nil
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
	if errors.Is(err, ErrTranscriptionTimeout) {
		errorCode = "TRANSCRIPTION_TIMEOUT"
	} else if errors.Is(err, ErrTranscriptionFailed) {
		errorCode = "TRANSCRIPTION_FAILED"
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
