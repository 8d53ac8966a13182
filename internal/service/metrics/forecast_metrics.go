package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ForecastLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "demandcast",
			Subsystem: "forecast",
			Name:      "latency_seconds",
			Help:      "Latency of forecast API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ForecastErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "demandcast",
			Subsystem: "forecast",
			Name:      "errors_total",
			Help:      "Errors by forecast API endpoint",
		},
		[]string{"endpoint"},
	)

	ForecastDataQuality = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "demandcast",
			Subsystem: "forecast",
			Name:      "data_quality_total",
			Help:      "Forecasts produced per data quality tier",
		},
		[]string{"quality"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ForecastLatency, ForecastErrors, ForecastDataQuality)
	})
}
