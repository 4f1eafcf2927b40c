package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/TenKdoToLami/UpNext/internal/config"
)

func getCounterVecValue(cv *prometheus.CounterVec, labels ...string) float64 {
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func TestMetrics_ProviderRequestsTotal(t *testing.T) {
	before := getCounterVecValue(ProviderRequestsTotal, "anilist", "success")
	ProviderRequestsTotal.WithLabelValues("anilist", "success").Inc()
	after := getCounterVecValue(ProviderRequestsTotal, "anilist", "success")

	if after != before+1 {
		t.Errorf("Expected success counter to increment by 1, got diff %.0f", after-before)
	}
}

func TestMetrics_ProviderRequestsTotal_Error(t *testing.T) {
	before := getCounterVecValue(ProviderRequestsTotal, "tmdb", "error")
	ProviderRequestsTotal.WithLabelValues("tmdb", "error").Inc()
	after := getCounterVecValue(ProviderRequestsTotal, "tmdb", "error")

	if after != before+1 {
		t.Errorf("Expected error counter to increment by 1, got diff %.0f", after-before)
	}
}

func TestMetrics_SearchesTotal(t *testing.T) {
	before := getCounterVecValue(SearchesTotal, "Anime")
	SearchesTotal.WithLabelValues("Anime").Inc()
	after := getCounterVecValue(SearchesTotal, "Anime")

	if after != before+1 {
		t.Errorf("Expected search counter to increment by 1, got diff %.0f", after-before)
	}
}

func TestMetrics_NewHTTPServer(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Address = "localhost"
	cfg.Metrics.Port = 9191
	srv := NewHTTPServer(cfg)

	if srv.Addr != "localhost:9191" {
		t.Errorf("Expected address 'localhost:9191', got '%s'", srv.Addr)
	}

	if srv.Handler == nil {
		t.Error("Expected handler to be set")
	}
}

func TestMetrics_NewHTTPServer_DefaultPort(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Address = "0.0.0.0"
	srv := NewHTTPServer(cfg)

	if srv.Addr != "0.0.0.0:9090" {
		t.Errorf("Expected address '0.0.0.0:9090', got '%s'", srv.Addr)
	}
}
