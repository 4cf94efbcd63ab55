/*
scheduler.go - Catalog file refresh scheduler

PURPOSE:
  Periodically checks the configured catalog file and reinstalls it into
  the store when it changed, so price list updates reach the running server
  without a restart.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Detects changes by file modification time
  - A file that fails validation is skipped; the previous catalog stays
  - Records refresh runs for audit and UI display

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 minute)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewCatalogRefreshScheduler(path, store, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ImportCatalog endpoint (manual import)
  - catalog/catalog.go: Parser
*/
package api

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/cpq-engine/catalog"
	"github.com/warp/cpq-engine/internal/metrics"
	"github.com/warp/cpq-engine/pricing"
)

// maxRefreshRuns is how many runs are kept for display.
const maxRefreshRuns = 20

// CatalogRefreshRun records one reload attempt.
type CatalogRefreshRun struct {
	StartedAt      time.Time `json:"started_at"`
	Status         string    `json:"status"` // completed, failed
	Products       int       `json:"products"`
	MigrationPaths int       `json:"migration_paths"`
	Error          string    `json:"error,omitempty"`
}

// CatalogStores is what a refresh writes into.
type CatalogStores interface {
	pricing.CatalogStore
	pricing.PathStore
}

// CatalogRefreshScheduler reinstalls a catalog file when it changes.
type CatalogRefreshScheduler struct {
	Path          string
	Store         CatalogStores
	Parser        *catalog.Parser
	CheckInterval time.Duration
	Enabled       bool

	// Metrics is optional.
	Metrics *metrics.Metrics

	logger *zap.Logger

	running bool
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	modTime time.Time
	runs    []CatalogRefreshRun
}

// NewCatalogRefreshScheduler creates a new scheduler.
func NewCatalogRefreshScheduler(path string, store CatalogStores, logger *zap.Logger) *CatalogRefreshScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogRefreshScheduler{
		Path:          path,
		Store:         store,
		Parser:        catalog.NewParser(),
		CheckInterval: time.Minute,
		Enabled:       true,
		logger:        logger.Named("catalog-refresh"),
	}
}

// Start begins the scheduler. Calling it while running is a no-op.
func (cs *CatalogRefreshScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled || cs.Path == "" {
		cs.logger.Info("disabled, not starting")
		return
	}
	if cs.running {
		return
	}

	ticker := time.NewTicker(cs.CheckInterval)
	cs.stop = make(chan struct{})
	cs.done = make(chan struct{})
	cs.running = true

	go cs.run(ticker, cs.stop, cs.done)

	cs.logger.Info("started", zap.String("path", cs.Path), zap.Duration("interval", cs.CheckInterval))
}

// Stop stops the scheduler and waits for an in-flight check. It may be
// called repeatedly, and Start may be called again afterwards.
func (cs *CatalogRefreshScheduler) Stop() {
	cs.mu.Lock()
	if !cs.running {
		cs.mu.Unlock()
		return
	}
	cs.running = false
	close(cs.stop)
	done := cs.done
	cs.mu.Unlock()

	<-done
	cs.logger.Info("stopped")
}

func (cs *CatalogRefreshScheduler) run(ticker *time.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cs.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow checks the file immediately. It reports whether a reload happened.
func (cs *CatalogRefreshScheduler) RunNow(ctx context.Context) bool {
	info, err := os.Stat(cs.Path)
	if err != nil {
		cs.record(CatalogRefreshRun{StartedAt: time.Now().UTC(), Status: "failed", Error: err.Error()})
		cs.logger.Warn("catalog file unavailable", zap.String("path", cs.Path), zap.Error(err))
		return false
	}

	cs.mu.Lock()
	unchanged := info.ModTime().Equal(cs.modTime)
	cs.mu.Unlock()
	if unchanged {
		return false
	}

	run := CatalogRefreshRun{StartedAt: time.Now().UTC()}
	cat, err := cs.Parser.LoadFile(cs.Path)
	if err == nil {
		err = cat.Install(ctx, cs.Store, cs.Store)
	}
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
		cs.record(run)
		cs.logger.Error("catalog refresh failed", zap.String("path", cs.Path), zap.Error(err))
		return false
	}

	run.Status = "completed"
	run.Products = len(cat.Products)
	run.MigrationPaths = len(cat.Paths)

	cs.mu.Lock()
	cs.modTime = info.ModTime()
	cs.mu.Unlock()
	cs.record(run)

	cs.logger.Info("catalog refreshed",
		zap.String("path", cs.Path),
		zap.Int("products", run.Products),
		zap.Int("migration_paths", run.MigrationPaths),
	)
	return true
}

// Reinstall installs the file even when it has not changed, for callers
// that wiped the store (scenario loads).
func (cs *CatalogRefreshScheduler) Reinstall(ctx context.Context) bool {
	cs.mu.Lock()
	cs.modTime = time.Time{}
	cs.mu.Unlock()
	return cs.RunNow(ctx)
}

// Runs returns the recorded runs, newest first.
func (cs *CatalogRefreshScheduler) Runs() []CatalogRefreshRun {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := make([]CatalogRefreshRun, len(cs.runs))
	for i, r := range cs.runs {
		out[len(cs.runs)-1-i] = r
	}
	return out
}

func (cs *CatalogRefreshScheduler) record(run CatalogRefreshRun) {
	cs.Metrics.RecordCatalogRefresh(run.Status)

	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.runs = append(cs.runs, run)
	if len(cs.runs) > maxRefreshRuns {
		cs.runs = cs.runs[len(cs.runs)-maxRefreshRuns:]
	}
}
