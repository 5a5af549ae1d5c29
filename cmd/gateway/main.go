// Command gateway runs the symbol-routing edge proxy: it resolves each
// order's shard and forwards the request, and exposes its own metrics on a
// separate port.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rishav/matching-engine/internal/config"
	"github.com/rishav/matching-engine/internal/gateway"
	"github.com/rishav/matching-engine/internal/metrics"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.LoadGateway()

	m := metrics.NewGateway()
	router := gateway.NewRouter(cfg.ShardSymbols, cfg.ShardURLs)
	gw := gateway.New(router, m, log)

	mux := http.NewServeMux()
	gw.Routes(mux)

	httpSrv := &http.Server{
		Addr:         addrFor(cfg.HTTPPort),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	metricsSrv := &http.Server{
		Addr:    addrFor(cfg.MetricsPort),
		Handler: m.Handler(),
	}

	go func() {
		log.Info("gateway http listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()
	go func() {
		log.Info("gateway metrics listening", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}

func addrFor(port int) string {
	return fmt.Sprintf(":%d", port)
}
