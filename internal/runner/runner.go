// Package runner orchestrates a generation run: pre-flight checks, cached
// master loading, concurrent catalog rendering, metadata documents, and the
// final run report.
package runner

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gipity/assetgen/internal/catalog"
	"github.com/gipity/assetgen/internal/domain"
	"github.com/gipity/assetgen/internal/engine"
	"github.com/gipity/assetgen/internal/id"
	"github.com/gipity/assetgen/internal/manifest"
)

// MissingMastersError is returned when pre-flight finds required masters
// absent. Nothing has been written when a run fails this way.
type MissingMastersError struct {
	Missing []string
}

func (e *MissingMastersError) Error() string {
	return "missing required master images: " + strings.Join(e.Missing, ", ")
}

type Options struct {
	Root        string
	MastersDir  string
	Concurrency int
}

type Runner struct {
	root        string
	mastersDir  string
	concurrency int
	set         *catalog.Set
	renderer    engine.Renderer
	logger      zerolog.Logger
	metrics     *metrics
	tracer      trace.Tracer
}

func New(opts Options, set *catalog.Set, renderer engine.Renderer, logger zerolog.Logger) (*Runner, error) {
	if set == nil {
		return nil, fmt.Errorf("catalog set is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}

	root := opts.Root
	if root == "" {
		root = "."
	}
	mastersDir := opts.MastersDir
	if mastersDir == "" {
		mastersDir = "master-images"
	}
	if !filepath.IsAbs(mastersDir) {
		mastersDir = filepath.Join(root, mastersDir)
	}

	return &Runner{
		root:        root,
		mastersDir:  mastersDir,
		concurrency: max(1, opts.Concurrency),
		set:         set,
		renderer:    renderer,
		logger:      logger,
		metrics:     newMetrics(),
		tracer:      otel.Tracer("assetgen/runner"),
	}, nil
}

func (r *Runner) MetricsHandler() http.Handler {
	return r.metrics.Handler()
}

// Run executes every catalog and the metadata stage. Per-task failures are
// recorded in the report, not returned; the error return is reserved for
// conditions that prevent the run from starting at all.
func (r *Runner) Run(ctx context.Context) (domain.RunReport, error) {
	runID := id.NewRun()
	logger := r.logger.With().Str("run_id", runID).Logger()
	startedAt := time.Now().UTC()

	ctx, span := r.tracer.Start(ctx, "runner.run")
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.Int("run.catalogs", len(r.set.Catalogs())),
		attribute.Int("run.tasks", r.set.TotalTasks()),
	)
	defer span.End()

	report := domain.RunReport{ID: runID, Root: r.root, StartedAt: startedAt}

	if err := r.preflight(); err != nil {
		report.FinishedAt = time.Now().UTC()
		logger.Error().Err(err).Msg("pre-flight failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "pre-flight failed")
		r.metrics.runsTotal.WithLabelValues("preflight_failed").Inc()
		return report, err
	}

	cache := newMasterCache(r.mastersDir, logger)
	catalogs := r.set.Catalogs()
	reports := make([]domain.CatalogReport, len(catalogs))
	outputs := make([][]string, len(catalogs))

	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup
	for i, cat := range catalogs {
		wg.Add(1)
		go func(i int, cat domain.Catalog) {
			defer wg.Done()
			sem <- struct{}{}
			r.metrics.activeCatalogs.Inc()
			defer func() {
				<-sem
				r.metrics.activeCatalogs.Dec()
			}()
			reports[i], outputs[i] = r.runCatalog(ctx, logger, cache, cat)
		}(i, cat)
	}
	wg.Wait()

	report.Catalogs = reports
	seen := make(map[string]bool)
	for _, batch := range outputs {
		for _, rel := range batch {
			if seen[rel] {
				continue
			}
			seen[rel] = true
			report.Outputs = append(report.Outputs, rel)
		}
	}

	r.writeMetadata(logger, &report)

	report.FinishedAt = time.Now().UTC()
	succeeded, expected := report.Totals()
	span.SetAttributes(
		attribute.Int("run.succeeded", succeeded),
		attribute.Int("run.expected", expected),
	)

	status := "complete"
	if report.Complete() {
		span.SetStatus(codes.Ok, "run complete")
	} else {
		status = "incomplete"
		span.SetStatus(codes.Error, "run incomplete")
	}
	r.metrics.runsTotal.WithLabelValues(status).Inc()
	r.metrics.runDuration.Observe(report.Duration().Seconds())
	r.metrics.outputsTotal.Add(float64(len(report.Outputs)))

	logger.Info().
		Int("succeeded", succeeded).
		Int("expected", expected).
		Int("outputs", len(report.Outputs)).
		Dur("duration", report.Duration()).
		Msg("run finished")
	return report, nil
}

// preflight verifies every required master exists before any file is
// written. Optional masters are resolved lazily and may fail per task.
func (r *Runner) preflight() error {
	var missing []string
	for _, spec := range r.set.RequiredMasters() {
		path := filepath.Join(r.mastersDir, spec.File)
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return &MissingMastersError{Missing: missing}
	}
	return nil
}

func (r *Runner) runCatalog(ctx context.Context, logger zerolog.Logger, cache *masterCache, cat domain.Catalog) (domain.CatalogReport, []string) {
	startedAt := time.Now()
	ctx, span := r.tracer.Start(ctx, "runner.catalog")
	span.SetAttributes(
		attribute.String("catalog.name", cat.Name),
		attribute.String("catalog.family", cat.Family),
		attribute.Int("catalog.expected", cat.Expected()),
	)
	defer span.End()

	report := domain.CatalogReport{Name: cat.Name, Family: cat.Family, Expected: cat.Expected()}
	outputs := make([]string, 0, len(cat.Tasks))

	for _, task := range cat.Tasks {
		err := ctx.Err()
		if err == nil {
			err = r.runTask(ctx, cache, task)
		}
		if err != nil {
			size := ""
			if task.Spec.Size != nil {
				size = task.Spec.Size.String()
			}
			logger.Error().
				Err(err).
				Str("catalog", cat.Name).
				Str("dest", task.Dest).
				Str("size", size).
				Msg("task failed")
			report.Failures = append(report.Failures, domain.TaskFailure{Dest: task.Dest, Size: size, Error: err.Error()})
			r.metrics.tasksTotal.WithLabelValues(cat.Family, "failed").Inc()
			continue
		}
		report.Succeeded++
		outputs = append(outputs, task.Dest)
		r.metrics.tasksTotal.WithLabelValues(cat.Family, "succeeded").Inc()
	}

	r.metrics.catalogDuration.WithLabelValues(cat.Family).Observe(time.Since(startedAt).Seconds())
	span.SetAttributes(attribute.Int("catalog.succeeded", report.Succeeded))
	if report.Complete() {
		span.SetStatus(codes.Ok, "catalog complete")
	} else {
		span.SetStatus(codes.Error, "catalog incomplete")
	}

	logger.Info().
		Str("catalog", cat.Name).
		Int("succeeded", report.Succeeded).
		Int("expected", report.Expected).
		Msg("catalog finished")
	return report, outputs
}

func (r *Runner) runTask(ctx context.Context, cache *masterCache, task domain.Task) error {
	var master *domain.Master
	if task.Spec.Mode != domain.ModeBlank {
		spec, ok := r.set.MasterByRole(task.Role)
		if !ok {
			return fmt.Errorf("no master registered for role %s", task.Role)
		}
		m, err := cache.get(spec)
		if err != nil {
			return fmt.Errorf("load %s master: %w", task.Role, err)
		}
		master = m
	}

	rendered, err := r.renderer.Render(ctx, master, task.Spec)
	if err != nil {
		return err
	}
	return writeOutput(r.root, task.Dest, rendered.Data)
}

// writeMetadata runs after the image catalogs. Failures here degrade to
// warnings; the images on disk are already good.
func (r *Runner) writeMetadata(logger zerolog.Logger, report *domain.RunReport) {
	written, err := manifest.WriteIOSContents(r.root)
	if err != nil {
		logger.Warn().Err(err).Msg("ios contents write failed")
		report.Warnings = append(report.Warnings, fmt.Sprintf("ios contents: %v", err))
	} else {
		report.Outputs = append(report.Outputs, written...)
	}

	written, err = manifest.WriteAdaptiveIconXML(r.root)
	if err != nil {
		logger.Warn().Err(err).Msg("adaptive icon xml write failed")
		report.Warnings = append(report.Warnings, fmt.Sprintf("adaptive icon xml: %v", err))
	} else {
		report.Outputs = append(report.Outputs, written...)
	}

	updated, err := manifest.UpdateWebManifest(r.root)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("web manifest update failed")
		report.Warnings = append(report.Warnings, fmt.Sprintf("web manifest: %v", err))
	case !updated:
		logger.Warn().Msg("web manifest not found, skipping icon rewrite")
		report.Warnings = append(report.Warnings, "web manifest not found; icon list not rewritten")
	default:
		report.Outputs = append(report.Outputs, manifest.WebManifestPath)
	}
}

func writeOutput(root, rel string, data []byte) error {
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// masterCache decodes each master once per run, however many catalogs share
// it. Loads are lazy so optional masters only fail the tasks that need them.
type masterCache struct {
	dir    string
	logger zerolog.Logger
	mu     sync.Mutex
	loads  map[domain.Role]*masterLoad
}

type masterLoad struct {
	once   sync.Once
	master *domain.Master
	err    error
}

func newMasterCache(dir string, logger zerolog.Logger) *masterCache {
	return &masterCache{dir: dir, logger: logger, loads: make(map[domain.Role]*masterLoad)}
}

func (c *masterCache) get(spec domain.MasterSpec) (*domain.Master, error) {
	c.mu.Lock()
	l, ok := c.loads[spec.Role]
	if !ok {
		l = &masterLoad{}
		c.loads[spec.Role] = l
	}
	c.mu.Unlock()

	l.once.Do(func() {
		l.master, l.err = engine.LoadMaster(spec.Role, filepath.Join(c.dir, spec.File))
		if l.err == nil && l.master.Size != spec.Expected {
			c.logger.Warn().
				Str("role", string(spec.Role)).
				Str("size", l.master.Size.String()).
				Str("expected", spec.Expected.String()).
				Msg("master dimensions differ from registry")
		}
	})
	return l.master, l.err
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
