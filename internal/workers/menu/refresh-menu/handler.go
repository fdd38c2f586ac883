// internal/workers/menu/refresh-menu/handler.go
package refreshmenu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/xeipuuv/gojsonschema"

	apperrors "foodexpress-workers/internal/common/errors"
	"foodexpress-workers/internal/common/logger"
	"foodexpress-workers/internal/common/metrics"
	"foodexpress-workers/internal/core/menu"
)

const (
	TaskType = "refresh-menu"
)

var (
	ErrMenuRefreshFailed    = errors.New("MENU_REFRESH_FAILED")
	ErrMenuValidationFailed = errors.New("MENU_VALIDATION_FAILED")
	ErrSearchIndexFailed    = errors.New("SEARCH_INDEX_FAILED")
)

// menuItemSchema guards against bad rows (negative prices, blank names)
// reaching the live catalog. A failed validation keeps the previous snapshot.
const menuItemSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "name", "category", "price", "branchId"],
		"properties": {
			"id": {"type": "integer", "minimum": 1},
			"name": {"type": "string", "minLength": 1},
			"aliases": {"type": "array", "items": {"type": "string", "minLength": 1}},
			"category": {"type": "string", "minLength": 1},
			"price": {"type": "number", "minimum": 0},
			"branchId": {"type": "integer", "minimum": 1},
			"isAvailable": {"type": "boolean"}
		}
	}
}`

type Handler struct {
	config  *Config
	store   MenuStore
	indexer SearchIndexer
	catalog *menu.Catalog
	logger  logger.Logger
}

func NewHandler(config *Config, store MenuStore, indexer SearchIndexer, catalog *menu.Catalog, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		store:   store,
		indexer: indexer,
		catalog: catalog,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	if input.Reason != "" {
		h.logger.Info("menu refresh requested", map[string]interface{}{"reason": input.Reason})
	}

	items, err := h.store.MenuItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMenuRefreshFailed, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: menu source returned no items", ErrMenuRefreshFailed)
	}

	if err := validateItems(items); err != nil {
		return nil, err
	}

	available := 0
	for _, item := range items {
		if item.IsAvailable {
			available++
		}
	}

	// Swap only after validation so a broken load never degrades the live
	// catalog.
	h.catalog.Replace(items)
	metrics.MenuCatalogItems.Set(float64(len(items)))
	h.logger.Info("catalog replaced", map[string]interface{}{
		"itemCount":      len(items),
		"availableCount": available,
	})

	indexed := 0
	if h.config.IndexToSearch && h.indexer != nil {
		indexed, err = h.indexer.IndexItems(ctx, h.config.SearchIndex, items)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSearchIndexFailed, err)
		}
	}

	return &Output{
		ItemCount:      len(items),
		AvailableCount: available,
		IndexedCount:   indexed,
		RefreshedAt:    time.Now().UTC(),
	}, nil
}

func validateItems(items interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(menuItemSchema),
		gojsonschema.NewGoLoader(items),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMenuValidationFailed, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrMenuValidationFailed, strings.Join(details, "; "))
	}
	return nil
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
	case errors.Is(err, ErrMenuValidationFailed):
		errorCode = "MENU_VALIDATION_FAILED"
	case errors.Is(err, ErrSearchIndexFailed):
		errorCode = "SEARCH_INDEX_FAILED"
	case errors.Is(err, ErrMenuRefreshFailed):
		errorCode = "MENU_REFRESH_FAILED"
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
