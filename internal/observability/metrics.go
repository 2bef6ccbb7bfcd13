package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational metrics for the crawler.
type Metrics struct {
	// Request metrics
	RequestsTotal   atomic.Int64
	RequestsFailed  atomic.Int64
	RequestsRetried atomic.Int64

	// Response metrics
	ResponsesTotal atomic.Int64
	Responses2xx   atomic.Int64
	Responses3xx   atomic.Int64
	Responses4xx   atomic.Int64
	Responses5xx   atomic.Int64

	// Item metrics
	ItemsScraped atomic.Int64
	ItemsDropped atomic.Int64
	ItemsStored  atomic.Int64

	// Engine metrics
	ActiveWorkers   atomic.Int32
	QueueDepth      atomic.Int64
	BytesDownloaded atomic.Int64

	// Proxy metrics
	ProxyRotations atomic.Int64
	ProxyErrors    atomic.Int64

	// Collector metrics
	CollectorsActive    atomic.Int32
	ResourcesExhausted  atomic.Int64
	BufferDepth         atomic.Int64
	FlushesTotal        atomic.Int64
	FlushesFailed       atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"byteflow_requests_total", "Total requests made", m.RequestsTotal.Load()},
		{"byteflow_requests_failed_total", "Total failed requests", m.RequestsFailed.Load()},
		{"byteflow_requests_retried_total", "Total retried requests", m.RequestsRetried.Load()},
		{"byteflow_responses_total", "Total responses received", m.ResponsesTotal.Load()},
		{"byteflow_responses_2xx_total", "Total 2xx responses", m.Responses2xx.Load()},
		{"byteflow_responses_3xx_total", "Total 3xx responses", m.Responses3xx.Load()},
		{"byteflow_responses_4xx_total", "Total 4xx responses", m.Responses4xx.Load()},
		{"byteflow_responses_5xx_total", "Total 5xx responses", m.Responses5xx.Load()},
		{"byteflow_items_scraped_total", "Total items scraped", m.ItemsScraped.Load()},
		{"byteflow_items_dropped_total", "Total items dropped", m.ItemsDropped.Load()},
		{"byteflow_items_stored_total", "Total items stored", m.ItemsStored.Load()},
		{"byteflow_active_workers", "Currently active workers", int64(m.ActiveWorkers.Load())},
		{"byteflow_queue_depth", "Current URL queue depth", m.QueueDepth.Load()},
		{"byteflow_bytes_downloaded_total", "Total bytes downloaded", m.BytesDownloaded.Load()},
		{"byteflow_proxy_rotations_total", "Total proxy rotations", m.ProxyRotations.Load()},
		{"byteflow_proxy_errors_total", "Total proxy errors", m.ProxyErrors.Load()},
		{"byteflow_collectors_active", "Currently active collectors", int64(m.CollectorsActive.Load())},
		{"byteflow_resources_exhausted_total", "Total end-of-resource detections", m.ResourcesExhausted.Load()},
		{"byteflow_buffer_depth", "Current buffered record count across all collectors", m.BufferDepth.Load()},
		{"byteflow_flushes_total", "Total buffer flushes to a storage engine", m.FlushesTotal.Load()},
		{"byteflow_flushes_failed_total", "Total failed buffer flushes", m.FlushesFailed.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"requests_total":   m.RequestsTotal.Load(),
		"requests_failed":  m.RequestsFailed.Load(),
		"responses_total":  m.ResponsesTotal.Load(),
		"responses_2xx":    m.Responses2xx.Load(),
		"responses_4xx":    m.Responses4xx.Load(),
		"responses_5xx":    m.Responses5xx.Load(),
		"items_scraped":    m.ItemsScraped.Load(),
		"items_dropped":    m.ItemsDropped.Load(),
		"items_stored":     m.ItemsStored.Load(),
		"active_workers":   int64(m.ActiveWorkers.Load()),
		"queue_depth":         m.QueueDepth.Load(),
		"bytes_downloaded":    m.BytesDownloaded.Load(),
		"collectors_active":   int64(m.CollectorsActive.Load()),
		"resources_exhausted": m.ResourcesExhausted.Load(),
		"buffer_depth":        m.BufferDepth.Load(),
		"flushes_total":       m.FlushesTotal.Load(),
		"flushes_failed":      m.FlushesFailed.Load(),
	}
}
