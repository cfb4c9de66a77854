package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/superline-ai/agent-detection/internal/metrics"
	"github.com/superline-ai/agent-detection/internal/model"
	"github.com/superline-ai/agent-detection/pkg/config"
)

func main() {
	var (
		snapshotPath = flag.String("snapshot", "", "recorded session snapshot (JSON) to evaluate")
		dirPath      = flag.String("dir", "", "directory of snapshot files to evaluate")
		modelPath    = flag.String("model", "", "model parameters artifact (overrides AGENTDETECT_MODEL_PATH)")
		realTime     = flag.Bool("realtime", false, "replay with recorded timestamp deltas instead of instantly")
	)
	flag.Parse()

	cfg := config.Load()
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}
	if *snapshotPath == "" && *dirPath == "" {
		fmt.Fprintln(os.Stderr, "usage: agentdetect -snapshot session.json | -dir snapshots/")
		os.Exit(2)
	}

	loader, err := model.NewLoader(cfg.ModelPath)
	if err != nil {
		log.Fatalf("loading model parameters: %v", err)
	}
	if cfg.WatchModel {
		stop, err := loader.Watch()
		if err != nil {
			log.Fatalf("watching model parameters: %v", err)
		}
		defer stop()
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(prometheus.DefaultRegisterer)
		go serveMetrics(cfg.MetricsAddr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if *dirPath != "" {
		if err := evaluateDir(ctx, cfg, loader, m, *dirPath, *realTime); err != nil {
			log.Fatalf("evaluating %s: %v", *dirPath, err)
		}
		return
	}

	res, _, err := evaluateSnapshot(ctx, cfg, loader, m, *snapshotPath, *realTime)
	if err != nil {
		log.Fatalf("evaluating %s: %v", *snapshotPath, err)
	}
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		log.Fatalf("encoding result: %v", err)
	}
	fmt.Println(string(out))
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	log.Printf("metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("metrics server error: %v", err)
	}
}
