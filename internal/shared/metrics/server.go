package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthFunc func(ctx context.Context) error

// NewHandler monta o mux com /metrics e /healthz.
// gatherer nil usa o registry padrão do Prometheus.
func NewHandler(gatherer prometheus.Gatherer, healthFn HealthFunc) http.Handler {
	mux := http.NewServeMux()

	if gatherer == nil {
		mux.Handle("/metrics", promhttp.Handler())
	} else {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

// StartMetricsServer sobe um servidor HTTP leve só pra /metrics e /healthz.
// Roda em uma goroutine; o chamador faz o Shutdown.
func StartMetricsServer(port string, healthFn HealthFunc) *http.Server {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: NewHandler(nil, healthFn),
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
