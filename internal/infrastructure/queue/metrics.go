package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "paylane_queue_depth",
		Help: "Jobs waiting (ready or scheduled) per job kind",
	}, []string{"kind"})

	jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paylane_jobs_processed_total",
		Help: "Jobs processed by outcome",
	}, []string{"kind", "outcome"})
)
