// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command assurance-agent runs one node-local health engine: it loads
// the metric/rule catalog, wires the raw-bucket collectors and the
// graph's reconciliation sources, and drives the engine tick on a
// fixed-period scheduler, publishing each tick's snapshot to
// Prometheus, a gNMI-shaped gRPC surface, and (optionally) NATS.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"github.com/google/gops/agent"

	"github.com/edeline-labs/assurance-agent/internal/alog"
	"github.com/edeline-labs/assurance-agent/internal/catalog"
	"github.com/edeline-labs/assurance-agent/internal/collect"
	"github.com/edeline-labs/assurance-agent/internal/collect/kbremote"
	"github.com/edeline-labs/assurance-agent/internal/config"
	"github.com/edeline-labs/assurance-agent/internal/engine"
	"github.com/edeline-labs/assurance-agent/internal/export"
	"github.com/edeline-labs/assurance-agent/internal/gnmiserver"
	"github.com/edeline-labs/assurance-agent/internal/graph"
	"github.com/edeline-labs/assurance-agent/internal/health"
	"github.com/edeline-labs/assurance-agent/internal/promexport"
	"github.com/edeline-labs/assurance-agent/internal/scheduler"
	"github.com/edeline-labs/assurance-agent/pkg/nats"
)

func main() {
	var (
		flagConfigFile = flag.String("config", "./config.json", "Overwrite the default config options by those specified in `config.json`")
		flagResDir     = flag.String("resources-dir", "", "Overwrite the configured metrics.csv/rules.csv directory")
		flagPeriod     = flag.Duration("period", 0, "Overwrite the configured engine tick period")
		flagLogLevel   = flag.String("loglevel", "", "Overwrite the configured log level (debug, info, warn, error)")
		flagMetrics    = flag.String("metrics-listen", "", "Overwrite the Prometheus exporter listen address")
		flagGnmi       = flag.String("gnmi-listen", "", "Overwrite the gNMI server listen address")
		flagGops       = flag.Bool("gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		alog.Fatalf("parsing '.env' file failed: %s", err.Error())
	}

	cfg := config.Default()
	if err := config.Load(&cfg, *flagConfigFile); err != nil {
		alog.Fatalf("loading config %q failed: %s", *flagConfigFile, err.Error())
	}
	if *flagResDir != "" {
		cfg.ResourcesDir = *flagResDir
	}
	if *flagPeriod > 0 {
		cfg.Period = *flagPeriod
	}
	if *flagLogLevel != "" {
		cfg.LogLevel = *flagLogLevel
	}
	if *flagMetrics != "" {
		cfg.MetricsListen = *flagMetrics
	}
	if *flagGnmi != "" {
		cfg.GnmiListen = *flagGnmi
	}
	if *flagGops {
		cfg.Gops = true
	}

	alog.SetLevel(cfg.LogLevel)

	if cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			alog.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	agg, err := config.ParseAggregator(cfg.Aggregator)
	if err != nil {
		alog.Fatalf("config: %s", err.Error())
	}

	cat, err := catalog.LoadMetrics(filepath.Join(cfg.ResourcesDir, "metrics.csv"))
	if err != nil {
		alog.Fatalf("loading metrics.csv: %s", err.Error())
	}
	if err := cat.LoadRules(filepath.Join(cfg.ResourcesDir, "rules.csv")); err != nil {
		alog.Fatalf("loading rules.csv: %s", err.Error())
	}

	linux := collect.NewLinux()
	cpuKeys, ifKeys, diskKeys, sensorKeys := collect.LinuxKeySources()
	gu := &graph.Updater{
		CPUKeys:    cpuKeys,
		IfKeys:     ifKeys,
		DiskKeys:   diskKeys,
		SensorKeys: sensorKeys,
	}

	eng, err := engine.New(engine.Config{Period: cfg.Period, Aggregator: agg}, cat, gu)
	if err != nil {
		alog.Fatalf("building engine: %s", err.Error())
	}

	if errs := linux.Sample(eng.Store); len(errs) > 0 {
		for _, e := range errs {
			alog.Warnf("initial sample: %v", e)
		}
	}

	var natsClient *nats.Client
	if cfg.NATS != nil {
		if err := nats.Init(cfg.NATS); err != nil {
			alog.Warnf("nats: config init failed: %v", err)
		} else {
			nats.Connect()
			natsClient = nats.GetClient()
		}
	}

	promExp := promexport.New()
	publisher := export.NewPublisher(natsClient, cfg.NATSSubjectPrefix)
	mirror := export.NewMirror()

	var lastTick time.Time
	hook := func(res health.Result) {
		now := time.Now()
		dur := time.Duration(0)
		if !lastTick.IsZero() {
			dur = now.Sub(lastTick)
		}
		lastTick = now

		promExp.Observe(res, dur)
		publisher.Publish(res)
		mirror.Update(res)
	}

	sched, err := scheduler.New(eng, cfg.Period, hook)
	if err != nil {
		alog.Fatalf("building scheduler: %s", err.Error())
	}

	ctx, stopPollers := context.WithCancel(context.Background())
	defer stopPollers()
	for _, kb := range cfg.KB {
		kb := kb
		poller := kbremote.NewPoller(noopDialer{}, kb.Name, kb.Interval, kb.Backoff)
		go poller.Run(ctx, eng.Store)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promExp.Handler())
	mux.HandleFunc("/debug/scores", func(w http.ResponseWriter, r *http.Request) {
		for fullname, score := range mirror.Snapshot() {
			fmt.Fprintf(w, "%s %d\n", fullname, score)
		}
	})
	metricsSrv := &http.Server{Addr: cfg.MetricsListen, Handler: mux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			alog.Errorf("metrics server: %v", err)
		}
	}()

	lis, err := net.Listen("tcp", cfg.GnmiListen)
	if err != nil {
		alog.Fatalf("gnmi listen: %s", err.Error())
	}
	grpcSrv := grpc.NewServer()
	gnmiserver.RegisterServer(grpcSrv, &gnmiserver.Server{Engine: eng, PollInterval: cfg.Period})
	go func() {
		if err := grpcSrv.Serve(lis); err != nil {
			alog.Errorf("gnmi server: %v", err)
		}
	}()

	if err := sched.Start(cfg.Period); err != nil {
		alog.Fatalf("starting scheduler: %s", err.Error())
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	alog.Info("shutting down")
	if err := sched.Shutdown(); err != nil {
		alog.Warnf("scheduler shutdown: %v", err)
	}
	// Give an in-flight tick room to finish before tearing down the
	// collectors and exporters it reads from/writes to.
	time.Sleep(cfg.Period)

	stopPollers()
	grpcSrv.GracefulStop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		alog.Warnf("metrics server shutdown: %v", err)
	}
}

// noopDialer is the default KB dialer until a concrete VPP gNMI
// client is wired in; it always fails, leaving kbremote's retry/log
// dedupe path exercised rather than crashing the agent.
type noopDialer struct{}

func (noopDialer) Fetch(_ context.Context) (kbremote.Sample, error) {
	return kbremote.Sample{}, fmt.Errorf("no KB dialer configured")
}
