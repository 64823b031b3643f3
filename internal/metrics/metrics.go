package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives domain events worth counting.
type Recorder interface {
	ObserveMatch(category string, fallback bool)
	ObserveGeneration(status string, images int, elapsed time.Duration)
	ObserveCache(hit bool)
	ObserveDownload(status string, bytes int)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveMatch(string, bool) {}
func (Nop) ObserveGeneration(string, int, time.Duration) {}
func (Nop) ObserveCache(bool) {}
func (Nop) ObserveDownload(string, int) {}

// Prometheus records observations into a dedicated registry.
type Prometheus struct {
	registry *prometheus.Registry

	matchesTotal       *prometheus.CounterVec
	generationsTotal   *prometheus.CounterVec
	generationDuration prometheus.Histogram
	imagesTotal        prometheus.Counter
	cacheLookups       *prometheus.CounterVec
	downloadsTotal     *prometheus.CounterVec
	downloadBytes      prometheus.Histogram
}

// NewPrometheus builds a recorder with its own registry, so several instances
// (for example one per test) never collide on metric names.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		matchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prompt_matches_total",
				Help: "Prompt matches by winning category and whether the random fallback was used",
			},
			[]string{"category", "fallback"},
		),
		generationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "image_generations_total",
				Help: "Simulated generation requests by outcome",
			},
			[]string{"status"},
		),
		generationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "image_generation_duration_milliseconds",
				Help:    "Simulated generation duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
		),
		imagesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "images_generated_total",
				Help: "Total number of placeholder images handed out",
			},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "generation_cache_lookups_total",
				Help: "Generation cache lookups by result",
			},
			[]string{"result"},
		),
		downloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "image_downloads_total",
				Help: "Proxied image downloads by outcome",
			},
			[]string{"status"},
		),
		downloadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "image_download_bytes",
				Help:    "Size of proxied image downloads",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),
	}
}

func (p *Prometheus) ObserveMatch(category string, fallback bool) {
	label := "false"
	if fallback {
		label = "true"
	}
	p.matchesTotal.WithLabelValues(category, label).Inc()
}

func (p *Prometheus) ObserveGeneration(status string, images int, elapsed time.Duration) {
	p.generationsTotal.WithLabelValues(status).Inc()
	p.generationDuration.Observe(float64(elapsed.Milliseconds()))
	if images > 0 {
		p.imagesTotal.Add(float64(images))
	}
}

func (p *Prometheus) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cacheLookups.WithLabelValues(result).Inc()
}

func (p *Prometheus) ObserveDownload(status string, bytes int) {
	p.downloadsTotal.WithLabelValues(status).Inc()
	if bytes > 0 {
		p.downloadBytes.Observe(float64(bytes))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
