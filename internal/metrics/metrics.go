// Package metrics holds the prometheus collectors shared by the service,
// the HTTP layer and the background worker.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "taskboard"

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

var (
	Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Background backend operations by kind and outcome.",
	}, []string{"operation", "outcome"})

	Snapshots = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshots_total",
		Help:      "Live query snapshots received.",
	})

	Tasks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tasks",
		Help:      "Tasks in the latest snapshot.",
	})

	ExpiredTasks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "expired_tasks",
		Help:      "Tasks whose deadline lies before today.",
	})

	UploadedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploaded_bytes_total",
		Help:      "Bytes written to blob storage.",
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Register adds every collector to reg. Collectors already registered
// with reg are tolerated.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		Operations, Snapshots, Tasks, ExpiredTasks, UploadedBytes, HTTPRequests, HTTPDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

func Outcome(err error) string {
	if err != nil {
		return OutcomeFailed
	}
	return OutcomeOK
}
