package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeArtifact(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderInitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	writeArtifact(t, path, `{"weights":{"avg_speed":1.0},"bias":0.25}`)

	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	p, err := l.Parameters()
	if err != nil {
		t.Fatalf("Parameters: %v", err)
	}
	if p.Bias != 0.25 {
		t.Fatalf("bias = %v, want 0.25", p.Bias)
	}
}

func TestLoaderRejectsInvalidInitialArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	writeArtifact(t, path, `{"weights":{}}`)

	if _, err := NewLoader(path); err == nil {
		t.Fatal("expected error for artifact without weights")
	}
}

func TestLoaderHotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	writeArtifact(t, path, `{"weights":{"avg_speed":1.0},"bias":0.0}`)

	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	stop, err := l.Watch()
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	writeArtifact(t, path, `{"weights":{"avg_speed":2.0},"bias":1.0}`)

	deadline := time.After(2 * time.Second)
	for {
		p, err := l.Parameters()
		if err == nil && p.Bias == 1.0 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("artifact was not reloaded within deadline")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestLoaderKeepsPreviousOnBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	writeArtifact(t, path, `{"weights":{"avg_speed":1.0},"bias":0.5}`)

	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	stop, err := l.Watch()
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	writeArtifact(t, path, `not json`)

	// Give the watcher a chance to process the write.
	time.Sleep(200 * time.Millisecond)
	p, err := l.Parameters()
	if err != nil {
		t.Fatalf("Parameters: %v", err)
	}
	if p.Bias != 0.5 {
		t.Fatalf("previous table must survive a bad reload, bias = %v", p.Bias)
	}
}

func TestStaticSource(t *testing.T) {
	if _, err := (Static{}).Parameters(); err == nil {
		t.Fatal("empty Static must report a missing model")
	}
	p, err := (Static{P: &Parameters{Weights: map[string]float64{"a": 1}}}).Parameters()
	if err != nil || p == nil {
		t.Fatalf("static parameters: %v", err)
	}
}
