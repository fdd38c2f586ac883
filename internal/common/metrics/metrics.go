// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job-level metrics, recorded by every worker.
var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodexpress",
			Name:      "worker_jobs_completed_total",
			Help:      "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodexpress",
			Name:      "worker_jobs_failed_total",
			Help:      "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "foodexpress",
			Name:      "worker_job_duration_seconds",
			Help:      "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "foodexpress",
			Name:      "worker_jobs_active",
			Help:      "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Domain metrics.
var (
	// ConversationsEnded counts sessions reaching a terminal stage,
	// labelled completed or cancelled.
	ConversationsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodexpress",
			Name:      "conversations_ended_total",
			Help:      "Conversations that reached a terminal stage",
		},
		[]string{"outcome"},
	)

	OrdersPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodexpress",
			Name:      "orders_persisted_total",
			Help:      "Orders written to the database, including duplicate replays",
		},
		[]string{"result"},
	)

	MenuCatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "foodexpress",
			Name:      "menu_catalog_items",
			Help:      "Item count of the active menu catalog snapshot",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodexpress",
			Name:      "notifications_sent_total",
			Help:      "Notification delivery attempts by channel",
		},
		[]string{"channel", "status"},
	)
)
