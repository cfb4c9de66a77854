package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/superline-ai/agent-detection/internal/detector"
	"github.com/superline-ai/agent-detection/internal/metrics"
	"github.com/superline-ai/agent-detection/internal/model"
	"github.com/superline-ai/agent-detection/internal/replay"
	"github.com/superline-ai/agent-detection/internal/storage"
	"github.com/superline-ai/agent-detection/pkg/config"
)

// newStore builds the configured event store backend. Each evaluated
// snapshot gets its own storage front (and so its own session).
func newStore(cfg config.Config) (storage.Store, error) {
	switch cfg.StoreBackend {
	case "", "memory":
		return storage.NewMemoryStore(), nil
	case "sqlite":
		return storage.NewSQLiteStore(cfg.SQLitePath)
	case "postgres":
		return storage.NewPostgresStore(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// evaluateSnapshot replays one recorded session through the live pipeline
// and returns the final detection result plus the snapshot's label, if any.
func evaluateSnapshot(ctx context.Context, cfg config.Config, source model.Source, m *metrics.Metrics, path string, realTime bool) (detector.Result, string, error) {
	snap, err := replay.LoadSnapshot(path)
	if err != nil {
		return detector.Result{}, "", err
	}

	store, err := newStore(cfg)
	if err != nil {
		return detector.Result{}, "", err
	}
	st := storage.New(storage.Options{
		Store:         store,
		BufferSize:    cfg.BufferSize,
		FlushInterval: cfg.FlushInterval,
		Metrics:       m,
		Debug:         cfg.Debug,
	})
	defer st.Close()

	env := replay.NewEnvironment(snap, realTime)
	det := detector.New(detector.Options{
		Environment: env,
		Storage:     st,
		Model:       source,
		Metrics:     m,
	})
	if _, err := det.Init(ctx, detector.Config{Debug: cfg.Debug, AutoStart: true}); err != nil {
		return detector.Result{}, "", fmt.Errorf("init detector: %w", err)
	}
	if err := env.Start(ctx); err != nil {
		return detector.Result{}, "", fmt.Errorf("replay: %w", err)
	}
	res, err := det.FinalizeDetection(ctx)
	if err != nil {
		return detector.Result{}, "", fmt.Errorf("finalize: %w", err)
	}
	return res, snap.Label, nil
}

// evaluateDir runs every *.json snapshot in a directory and, when labels
// are present, prints accuracy and confusion counts.
func evaluateDir(ctx context.Context, cfg config.Config, source model.Source, m *metrics.Metrics, dir string, realTime bool) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no snapshot files in %s", dir)
	}
	sort.Strings(paths)

	var labeled, correct, truePos, trueNeg, falsePos, falseNeg int
	for _, path := range paths {
		res, label, err := evaluateSnapshot(ctx, cfg, source, m, path, realTime)
		if err != nil {
			log.Printf("%s: %v", path, err)
			continue
		}
		fmt.Printf("%s\tscore=%.4f\tagent=%v", filepath.Base(path), res.Score, res.IsAgent)
		if label != "" {
			labeled++
			want := label == "agent"
			if res.IsAgent == want {
				correct++
			}
			switch {
			case want && res.IsAgent:
				truePos++
			case !want && !res.IsAgent:
				trueNeg++
			case !want && res.IsAgent:
				falsePos++
			default:
				falseNeg++
			}
			fmt.Printf("\tlabel=%s", label)
		}
		fmt.Println()
	}

	if labeled > 0 {
		fmt.Printf("\naccuracy: %d/%d (%.1f%%)\n", correct, labeled, 100*float64(correct)/float64(labeled))
		fmt.Printf("confusion: tp=%d tn=%d fp=%d fn=%d\n", truePos, trueNeg, falsePos, falseNeg)
	}
	return nil
}
