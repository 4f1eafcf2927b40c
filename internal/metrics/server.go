package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TenKdoToLami/UpNext/internal/config"
)

// NewHTTPServer creates an HTTP server exposing Prometheus metrics at
// /metrics, bound to the configured server address and metrics port.
func NewHTTPServer(cfg *config.Config) *http.Server {
	port := cfg.Metrics.Port
	if port == 0 {
		port = 9090
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Address, port),
		Handler: mux,
	}
}
