// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"foodexpress-workers/internal/common/camunda"
	"foodexpress-workers/internal/common/config"
	"foodexpress-workers/internal/common/database"
	"foodexpress-workers/internal/common/logger"
	"foodexpress-workers/internal/common/observability"
	"foodexpress-workers/internal/core/dialog"
	"foodexpress-workers/internal/core/menu"
	"foodexpress-workers/internal/core/orders"

	// Conversation Workers (2)
	hm "foodexpress-workers/internal/workers/conversation/handle-message"
	tv "foodexpress-workers/internal/workers/conversation/transcribe-voice"

	// Location Worker (1)
	ga "foodexpress-workers/internal/workers/location/geocode-address"

	// Menu Worker (1)
	rm "foodexpress-workers/internal/workers/menu/refresh-menu"

	// Order Worker (1)
	po "foodexpress-workers/internal/workers/order/persist-order"

	// Communication Worker (1)
	sn "foodexpress-workers/internal/workers/communication/send-notification"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Bootstrap the menu catalog ---
	// The catalog starts from whatever Postgres holds right now; the
	// refresh-menu worker replaces it on every menu change from then on.
	catalog := menu.NewCatalog(nil)
	menuStore := rm.NewSQLMenuStore(pg.DB)

	items, err := menuStore.MenuItems(ctx)
	if err != nil {
		zapLog.Warn("initial menu load failed, catalog empty until first refresh", zap.Error(err))
	} else {
		catalog.Replace(items)
		zapLog.Info("menu catalog loaded", zap.Int("itemCount", len(items)))
	}

	// --- START: Register ALL 6 Workers ---

	// --- 1. Conversation Workers (2) ---
	if cfg.Workers[hm.TaskType].Enabled {
		etaPolicy := orders.DefaultETAPolicy()
		if cfg.Dialog.ETABaseMinutes > 0 {
			etaPolicy.BaseMinutes = cfg.Dialog.ETABaseMinutes
		}
		if cfg.Dialog.ETATravelSpeedKmh > 0 {
			etaPolicy.TravelSpeedKmh = cfg.Dialog.ETATravelSpeedKmh
		}

		dialogCfg := dialog.DefaultConfig()
		if cfg.Dialog.BranchChoiceMarginKm > 0 {
			dialogCfg.BranchChoiceMarginKm = cfg.Dialog.BranchChoiceMarginKm
		}
		if cfg.Dialog.MinTranscriptionConfidence > 0 {
			dialogCfg.MinTranscriptionConfidence = cfg.Dialog.MinTranscriptionConfidence
		}
		dialogCfg.ETA = etaPolicy

		machine := dialog.NewMachine(catalog, dialogCfg, log)

		hmCfg := hm.LoadConfig()
		hmCfg.Timeout = time.Duration(cfg.Workers[hm.TaskType].Timeout) * time.Millisecond
		if cfg.Dialog.SessionTTLHours > 0 {
			hmCfg.SessionTTL = time.Duration(cfg.Dialog.SessionTTLHours) * time.Hour
		}

		handler := hm.NewHandler(
			hmCfg,
			machine,
			hm.NewRedisSessionStore(redis.Client, hmCfg.SessionTTL),
			hm.NewSQLBranchSource(pg.DB),
			hm.NewSQLOrderLookup(pg.DB),
			log,
		)
		startWorker(zeebeClient, hm.TaskType, cfg.Workers[hm.TaskType], handler.Handle, obs, zapLog)
	}

	if cfg.Workers[tv.TaskType].Enabled {
		tvCfg := tv.LoadConfig()
		tvCfg.BaseURL = cfg.APIs.Transcription.BaseURL
		tvCfg.APIKey = cfg.APIs.Transcription.APIKey
		if cfg.APIs.Transcription.Model != "" {
			tvCfg.Model = cfg.APIs.Transcription.Model
		}
		if cfg.APIs.Transcription.Timeout > 0 {
			tvCfg.Timeout = time.Duration(cfg.APIs.Transcription.Timeout) * time.Millisecond
		}
		if cfg.Dialog.MinTranscriptionConfidence > 0 {
			tvCfg.MinConfidence = cfg.Dialog.MinTranscriptionConfidence
		}

		handler := tv.NewHandler(tvCfg, log)
		startWorker(zeebeClient, tv.TaskType, cfg.Workers[tv.TaskType], handler.Handle, obs, zapLog)
	}

	// --- 2. Location Worker (1) ---
	if cfg.Workers[ga.TaskType].Enabled {
		gaCfg := ga.LoadConfig()
		if cfg.APIs.Geocoding.BaseURL != "" {
			gaCfg.BaseURL = cfg.APIs.Geocoding.BaseURL
		}
		if cfg.APIs.Geocoding.UserAgent != "" {
			gaCfg.UserAgent = cfg.APIs.Geocoding.UserAgent
		}
		if cfg.APIs.Geocoding.Timeout > 0 {
			gaCfg.Timeout = time.Duration(cfg.APIs.Geocoding.Timeout) * time.Millisecond
		}

		handler := ga.NewHandler(gaCfg, log)
		startWorker(zeebeClient, ga.TaskType, cfg.Workers[ga.TaskType], handler.Handle, obs, zapLog)
	}

	// --- 3. Menu Worker (1) ---
	if cfg.Workers[rm.TaskType].Enabled {
		rmCfg := rm.LoadConfig()
		if cfg.Menu.SearchIndex != "" {
			rmCfg.SearchIndex = cfg.Menu.SearchIndex
		}
		rmCfg.Timeout = time.Duration(cfg.Workers[rm.TaskType].Timeout) * time.Millisecond

		handler := rm.NewHandler(rmCfg, menuStore, rm.NewESIndexer(esClient.Client), catalog, log)
		startWorker(zeebeClient, rm.TaskType, cfg.Workers[rm.TaskType], handler.Handle, obs, zapLog)
	}

	// --- 4. Order Worker (1) ---
	if cfg.Workers[po.TaskType].Enabled {
		poCfg := po.LoadConfig()
		poCfg.Timeout = time.Duration(cfg.Workers[po.TaskType].Timeout) * time.Millisecond

		handler := po.NewHandler(poCfg, po.NewSQLOrderStore(pg.DB), po.NewRedisStatusCache(redis.Client), log)
		startWorker(zeebeClient, po.TaskType, cfg.Workers[po.TaskType], handler.Handle, obs, zapLog)
	}

	// --- 5. Communication Worker (1) ---
	if cfg.Workers[sn.TaskType].Enabled {
		snCfg := sn.LoadConfig()
		snCfg.EmailEnabled = cfg.Notifications.Email.Enabled
		snCfg.SMSEnabled = cfg.Notifications.SMS.Enabled
		snCfg.FromEmail = cfg.Notifications.Email.FromEmail
		if cfg.Notifications.SMS.SenderID != "" {
			snCfg.SMSSenderID = cfg.Notifications.SMS.SenderID
		}
		snCfg.AWSRegion = cfg.Notifications.AWS.Region
		snCfg.Timeout = time.Duration(cfg.Workers[sn.TaskType].Timeout) * time.Millisecond

		handler, err := sn.NewHandler(snCfg, pg.DB, log)
		if err != nil {
			zapLog.Fatal("failed to create send-notification handler", zap.Error(err))
		}
		startWorker(zeebeClient, sn.TaskType, cfg.Workers[sn.TaskType], handler.Handle, obs, zapLog)
	}

	zapLog.Info("All 6 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	for _, w := range activeWorkers {
		w.Close()
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// activeWorkers collects every opened worker so shutdown can close them
// before the client.
var activeWorkers []*camunda.Worker

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), obs *observability.Observability, log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	w := camunda.StartWorker(
		client,
		taskType,
		wcfg.MaxJobsActive,
		time.Duration(wcfg.Timeout)*time.Millisecond,
		handlerFunc,
		obs,
		log,
	)
	activeWorkers = append(activeWorkers, w)
}
