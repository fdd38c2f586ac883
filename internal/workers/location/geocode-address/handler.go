// internal/workers/location/geocode-address/handler.go
package geocodeaddress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "foodexpress-workers/internal/common/errors"
	"foodexpress-workers/internal/common/logger"
	"foodexpress-workers/internal/common/metrics"
	"foodexpress-workers/internal/core/geo"
)

const (
	TaskType = "geocode-address"
)

var ErrGeocodingFailed = errors.New("GEOCODING_FAILED")

// cityFallback covers the major delivery cities when the geocoder is down or
// finds nothing; coordinates are the city centers.
var cityFallback = map[string][2]float64{
	"karachi":    {24.8607, 67.0011},
	"lahore":     {31.5204, 74.3587},
	"islamabad":  {33.6844, 73.0479},
	"rawalpindi": {33.5651, 73.0169},
	"faisalabad": {31.4504, 73.1350},
	"multan":     {30.1575, 71.5249},
	"peshawar":   {34.0151, 71.5249},
	"quetta":     {30.1798, 66.9750},
	"sialkot":    {32.4945, 74.5229},
	"gujranwala": {32.1877, 74.1945},
	"hyderabad":  {25.3960, 68.3578},
}

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
	if strings.TrimSpace(input.Address) == "" {
		return nil, fmt.Errorf("%w: address is required", ErrGeocodingFailed)
	}

	candidates, err := h.lookup(ctx, input)
	if err != nil || len(candidates) == 0 {
		if out, ok := h.fallbackToCity(input); ok {
			h.logger.Warn("geocoder unavailable, using city fallback", map[string]interface{}{
				"address": input.Address,
			})
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGeocodingFailed, err)
		}
		return nil, fmt.Errorf("%w: no results for %q", ErrGeocodingFailed, input.Address)
	}

	top := candidates[0]
	if len(candidates) > 1 {
		spread := geo.Haversine(top.Latitude, top.Longitude, candidates[1].Latitude, candidates[1].Longitude)
		if spread > h.config.AmbiguityRadiusKm {
			h.logger.Info("address is ambiguous", map[string]interface{}{
				"address":    input.Address,
				"candidates": len(candidates),
				"spreadKm":   spread,
			})
			return &Output{
				Latitude:    top.Latitude,
				Longitude:   top.Longitude,
				DisplayName: top.DisplayName,
				Source:      SourceGeocoder,
				Ambiguous:   true,
				Candidates:  candidates,
			}, nil
		}
	}

	return &Output{
		Latitude:    top.Latitude,
		Longitude:   top.Longitude,
		DisplayName: top.DisplayName,
		Source:      SourceGeocoder,
	}, nil
}

func (h *Handler) lookup(ctx context.Context, input *Input) ([]Candidate, error) {
	query := input.Address
	if input.City != "" && !strings.Contains(strings.ToLower(query), strings.ToLower(input.City)) {
		query += ", " + input.City
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=3", h.config.BaseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", h.config.UserAgent)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, lastErr = h.client.Do(req)
		if ctx.Err() != nil {
			return nil, ctx.Err()
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

	if lastErr != nil || resp == nil {
		return nil, lastErr
	}
	defer resp.Body.Close()

	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode error: %v", err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		candidates = append(candidates, Candidate{Latitude: lat, Longitude: lon, DisplayName: r.DisplayName})
	}
	return candidates, nil
}

// fallbackToCity resolves to a known city center when the address or the
// explicit city field names one.
func (h *Handler) fallbackToCity(input *Input) (*Output, bool) {
	haystack := strings.ToLower(input.Address + " " + input.City)
	for city, coords := range cityFallback {
		if strings.Contains(haystack, city) {
			return &Output{
				Latitude:    coords[0],
				Longitude:   coords[1],
				DisplayName: strings.ToUpper(city[:1]) + city[1:],
				Source:      SourceCityFallback,
			}, true
		}
	}
	return nil, false
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
	if errors.Is(err, ErrGeocodingFailed) {
		errorCode = "GEOCODING_FAILED"
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
