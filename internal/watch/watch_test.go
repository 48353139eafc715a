package watch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gipity/assetgen/internal/domain"
	"github.com/gipity/assetgen/internal/store"
)

func TestKickCollapsesBursts(t *testing.T) {
	w := New(t.TempDir(), 20*time.Millisecond, nil, zerolog.Nop())

	for i := 0; i < 5; i++ {
		w.kick()
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case <-w.trigger:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected one trigger after the burst settles")
	}

	select {
	case <-w.trigger:
		t.Fatal("a single burst must produce a single trigger")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStartRegeneratesOnFileChange(t *testing.T) {
	dir := t.TempDir()

	var runs atomic.Int32
	ran := make(chan struct{}, 4)
	run := func(ctx context.Context) error {
		runs.Add(1)
		ran <- struct{}{}
		return nil
	}

	w := New(dir, 30*time.Millisecond, run, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watcher a moment to register before touching the directory.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		name := filepath.Join(dir, "icon-master.png")
		if err := os.WriteFile(name, []byte{0x89, 'P', 'N', 'G', byte(i)}, 0o644); err != nil {
			t.Fatalf("write master: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a regeneration after master edits")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}

	if runs.Load() < 1 {
		t.Fatalf("expected at least one run, got %d", runs.Load())
	}
}

func TestStartFailsOnMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent"), 10*time.Millisecond, nil, zerolog.Nop())
	if err := w.Start(context.Background()); err == nil {
		t.Fatal("expected an error for a missing watch directory")
	}
}

func TestStatusEndpoints(t *testing.T) {
	runs := store.NewRunStore()
	runs.SetLatest(domain.RunReport{
		ID:   "run-test",
		Root: "/srv/app",
		Catalogs: []domain.CatalogReport{
			{Name: "web-icons", Family: "web", Succeeded: 2, Expected: 2},
		},
	})

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("assetgen_runner_runs_total 1\n"))
	})
	srv := httptest.NewServer(NewStatusServer(zerolog.Nop(), runs, metrics).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code %d", resp.StatusCode)
	}
	var body struct {
		Runs   int               `json:"runs"`
		Latest *domain.RunReport `json:"latest"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if body.Runs != 1 {
		t.Fatalf("expected 1 run, got %d", body.Runs)
	}
	if body.Latest == nil || body.Latest.ID != "run-test" {
		t.Fatalf("unexpected latest report: %+v", body.Latest)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status %d", resp.StatusCode)
	}
}

func TestStatusBeforeFirstRun(t *testing.T) {
	srv := httptest.NewServer(NewStatusServer(zerolog.Nop(), store.NewRunStore(), nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if body["runs"] != float64(0) {
		t.Fatalf("expected zero runs, got %v", body["runs"])
	}
	if _, ok := body["latest"]; ok {
		t.Fatal("latest should be omitted before the first run")
	}
}
