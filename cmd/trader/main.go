package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"llm-tick-trader/internal/audit"
	"llm-tick-trader/internal/connector"
	"llm-tick-trader/internal/logger"
	"llm-tick-trader/internal/marketdata"
	"llm-tick-trader/internal/mediator"
	"llm-tick-trader/internal/metrics"
	"llm-tick-trader/internal/scheduler"
	"llm-tick-trader/internal/store"
	"llm-tick-trader/internal/trace"
	"llm-tick-trader/internal/transport"

	"github.com/joho/godotenv"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "trader configuration file")
	flag.Parse()

	cfg, err := store.LoadConfig(*cfgPath)
	must(err)

	must(logger.Init())
	must(trace.Init())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots := marketdata.NewStore()
	for _, p := range cfg.Pairs {
		if p.Seed == nil {
			continue
		}
		must(snapshots.Update(marketdata.Snapshot{
			Instrument:   p.Instrument,
			Price:        p.Seed.Price,
			OpenInterest: p.Seed.OpenInterest,
			Features:     p.Seed.Features,
			FeatureNames: p.Seed.FeatureNames,
			Timestamp:    time.Now().UnixMilli(),
		}))
	}

	paper := connector.NewPaper(snapshots, cfg.Paper.Equity, cfg.Paper.MinNotional)
	med := mediator.New(paper, cfg.MinOrderDelta)

	auditStore, err := audit.Open(cfg.AuditPath)
	must(err)
	defer auditStore.Close()

	metricsSrv := metrics.Serve(cfg.MetricsAddr)
	logger.Info(ctx, "Trader started",
		"pairs", len(cfg.Pairs),
		"tick_seconds", cfg.TickSeconds,
		"decision_timeout_seconds", cfg.DecisionTimeoutSeconds,
		"metrics_addr", cfg.MetricsAddr,
	)

	var wg sync.WaitGroup
	clients := make([]*transport.Client, 0, len(cfg.Pairs))
	for _, p := range cfg.Pairs {
		client := transport.NewClient(p.Endpoint)
		clients = append(clients, client)

		sched := scheduler.New(scheduler.Config{
			AccountID:  p.AccountID,
			Instrument: p.Instrument,
			ModelID:    p.ModelID,
			Interval:   time.Duration(cfg.TickSeconds) * time.Second,
			Deadline:   time.Duration(cfg.DecisionTimeoutSeconds) * time.Second,
		}, client, snapshots, med, auditStore)

		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Run(ctx)
		}()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info(ctx, "Shutting down trader")

	cancel()
	wg.Wait()
	for _, c := range clients {
		_ = c.Close()
	}

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	_ = metricsSrv.Shutdown(shutCtx)
	_ = trace.Shutdown(shutCtx)
}
