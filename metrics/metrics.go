package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OCRAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "id_ocr_attempts_total",
			Help: "OCR attempts by preprocessing strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	OCRExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "id_ocr_extractions_total",
			Help: "Completed extraction requests by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	OCRDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "id_ocr_duration_seconds",
			Help:    "End-to-end extraction duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		},
		[]string{"method"},
	)

	ImageQualityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "id_image_quality_checks_total",
			Help: "Image quality assessments by overall bucket",
		},
		[]string{"overall"},
	)

	ProgressSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_progress_saves_total",
			Help: "Progress persistence results",
		},
		[]string{"result"},
	)

	OnboardingEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_events_total",
			Help: "Tracked onboarding analytics events",
		},
		[]string{"event"},
	)

	AutoSaversActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "onboarding_autosavers_active",
			Help: "Number of running per-session autosavers",
		},
	)
)
