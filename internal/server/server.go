package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"HorizonTrader/internal/model"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
)

// Sources are the read-only views the status server exposes.
type Sources struct {
	Balances  func() model.Balances
	Stats     func() map[string]model.AssetStat
	Stat      func(symbol string) (model.AssetStat, bool)
	Baselines func() map[model.Horizon]map[string]float64
	Gatherer  prometheus.Gatherer
}

// NewRouter builds the status API.
func NewRouter(src Sources) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
	r.Get("/balances", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, src.Balances())
	})
	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, src.Stats())
	})
	r.Get("/stats/{symbol}", func(w http.ResponseWriter, req *http.Request) {
		symbol := strings.ToUpper(chi.URLParam(req, "symbol"))
		stat, ok := src.Stat(symbol)
		if !ok {
			http.Error(w, fmt.Sprintf("no ticks received for %s", symbol), http.StatusNotFound)
			return
		}
		writeJSON(w, stat)
	})
	r.Get("/baselines", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, lo.MapKeys(src.Baselines(), func(_ map[string]float64, h model.Horizon) string {
			return h.String()
		}))
	})
	if src.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(src.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// Run serves handler on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] status server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown status server: %w", err)
	}
	log.Println("[INFO] status server stopped")
	return nil
}
