package metrics

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce    sync.Once
	serverMutex sync.Mutex
	currentSrv  *http.Server

	triggerMutex   sync.RWMutex
	triggerChannel chan struct{}
)

// Init initializes all metrics and registers them with the default Prometheus registry.
// Safe to call multiple times.
func Init() {
	initOnce.Do(func() {
		initCleanupMetrics()
		registerCleanupMetrics(prometheus.DefaultRegisterer)

		// Appear in /metrics before the first cycle
		CleanupLastRunTimestamp.Set(0)
	})
}

// SetTriggerChannel sets the channel POST /trigger sends on
func SetTriggerChannel(ch chan struct{}) {
	triggerMutex.Lock()
	defer triggerMutex.Unlock()
	triggerChannel = ch
}

// NewMux builds the handler: /metrics (Prometheus), /health, /trigger
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","healthy":true}`))
	})

	mux.HandleFunc("/trigger", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		triggerMutex.RLock()
		ch := triggerChannel
		triggerMutex.RUnlock()

		if ch == nil {
			http.Error(w, "Trigger channel not initialized", http.StatusServiceUnavailable)
			return
		}
		select {
		case ch <- struct{}{}:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Cleanup triggered"))
		default:
			http.Error(w, "Cleanup already pending", http.StatusServiceUnavailable)
		}
	})

	return mux
}

// StartServer starts the metrics HTTP server on addr in the background
func StartServer(addr string, logger *log.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	if currentSrv != nil {
		logger.Printf("metrics server already running on %s", currentSrv.Addr)
		return
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	currentSrv = srv

	go func() {
		logger.Printf("metrics server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server error: %v", err)
		}
	}()
}

// Shutdown gracefully shuts down the metrics server
func Shutdown(ctx context.Context, logger *log.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	if currentSrv == nil {
		return
	}
	if err := currentSrv.Shutdown(ctx); err != nil {
		logger.Printf("metrics server shutdown error: %v", err)
	}
	currentSrv = nil
}
