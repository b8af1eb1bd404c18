// Command fij-engine hosts one architecture's injection engine behind the
// control channel: an HTTP API standing in for the out-of-scope character device,
// a websocket dashboard for live session events, and a Prometheus metrics
// endpoint.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hardware-forge/fij-go/internal/adapters/arch"
	"github.com/hardware-forge/fij-go/internal/adapters/control"
	"github.com/hardware-forge/fij-go/internal/adapters/probe"
	"github.com/hardware-forge/fij-go/internal/adapters/process"
	"github.com/hardware-forge/fij-go/internal/config"
	"github.com/hardware-forge/fij-go/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.LoadEngineConfig()

	shutdownTracer, err := telemetry.InitTracer()
	if err != nil {
		log.Fatalf("fij-engine: init tracer: %v", err)
	}
	defer shutdownTracer(context.Background())
	telemetry.InitMetrics()

	regs, err := arch.For(cfg.Arch)
	if err != nil {
		log.Fatalf("fij-engine: %v", err)
	}

	procControl := process.New()
	probeAdapter := probe.New(procControl)
	dashboard := control.NewDashboard()
	server := control.NewServer(procControl, regs, probeAdapter, dashboard)

	mux := http.NewServeMux()
	mux.Handle("/", server.Handler())
	mux.HandleFunc(cfg.DashboardPath, dashboard.ServeHTTP)

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}

	go func() {
		log.Printf("fij-engine: control channel listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("fij-engine: control server: %v", err)
		}
	}()
	go func() {
		log.Printf("fij-engine: metrics listening on %s", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("fij-engine: metrics server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("fij-engine: shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
	metricsServer.Shutdown(ctx)
}
