// Command fij-campaign drives a full fault-injection campaign from a JSON
// configuration file: baseline timing, worker-pool fan-out of injected
// iterations, classification, and per-target CSV/JSON/PDF reporting.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hardware-forge/fij-go/internal/adapters/arch"
	"github.com/hardware-forge/fij-go/internal/adapters/config"
	"github.com/hardware-forge/fij-go/internal/adapters/probe"
	"github.com/hardware-forge/fij-go/internal/adapters/process"
	"github.com/hardware-forge/fij-go/internal/adapters/storage"
	"github.com/hardware-forge/fij-go/internal/campaign"
	cliconfig "github.com/hardware-forge/fij-go/internal/config"
	"github.com/hardware-forge/fij-go/internal/telemetry"
)

func main() {
	cli := cliconfig.LoadCampaignConfig()

	shutdownTracer, err := telemetry.InitTracer()
	if err != nil {
		log.Fatalf("fij-campaign: init tracer: %v", err)
	}
	defer shutdownTracer(context.Background())
	telemetry.InitMetrics()

	cfg, err := config.Load(cli.ConfigPath)
	if err != nil {
		log.Fatalf("fij-campaign: load config: %v", err)
	}

	regs, err := arch.For("")
	if err != nil {
		log.Fatalf("fij-campaign: %v", err)
	}

	audit, err := storage.NewSQLiteAuditStore(cli.AuditDB)
	if err != nil {
		log.Fatalf("fij-campaign: open audit store: %v", err)
	}
	defer audit.Close()

	procControl := process.New()
	runner := &campaign.Runner{
		Control: procControl,
		Regs:    regs,
		Probe:   probe.New(procControl),
		Audit:   audit,
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("fij-campaign: interrupt received, cancelling in-flight iterations")
		cancel()
	}()

	summaries, err := runner.Run(ctx, cfg)
	if err != nil {
		log.Fatalf("fij-campaign: %v", err)
	}

	for _, summary := range summaries {
		log.Printf(
			"campaign %s: requested=%d completed=%d mean=%.2fms stddev=%.2fms counts=%v",
			summary.Label, summary.Requested, summary.Completed,
			summary.MeanMS, summary.StdDevMS, summary.Counts,
		)
	}
}
