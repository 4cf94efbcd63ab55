/*
scenarios_test.go - Unit tests for demo scenarios and the catalog refresh scheduler

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- The demo catalog is installed
	- Quotes are created with the expected totals
	- Loading a scenario replaces the previous one
*/
package api

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/warp/cpq-engine/pricing/store"
)

func TestScenario_NewQuote(t *testing.T) {
	// GIVEN: New business scenario
	// WHEN: Loading the scenario
	// THEN: One quote with three priced lines and a discounted support fee
	_, router := setupRouter(t, "new-quote")

	rec := do(t, router, http.MethodGet, "/api/quotes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quotes := decodeBody[[]QuoteDTO](t, rec)
	require.Len(t, quotes, 1)

	q := quotes[0]
	require.Len(t, q.Products, 3)
	assertDecimal(t, "2915.36", q.Products[0].Price)
	assertDecimal(t, "1900", q.Products[1].Price) // storage usage is informational
	assertDecimal(t, "1200", q.Products[2].Price)

	// 2915.36 + 1900 + 1200 list, support sold at 1000
	assertDecimal(t, "6015.36", q.Summary.ListTotal)
	assertDecimal(t, "5815.36", q.Summary.CustomerTotal)
	assertDecimal(t, "3.32", q.Summary.DiscountPercent)
}

func TestScenario_LoadReplacesPrevious(t *testing.T) {
	_, router := setupRouter(t, "new-quote")

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "demo-catalog"})
	require.Equal(t, http.StatusOK, rec.Code)

	quotes := decodeBody[[]QuoteDTO](t, do(t, router, http.MethodGet, "/api/quotes", nil))
	assert.Empty(t, quotes)

	current := decodeBody[ScenarioDTO](t, do(t, router, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "demo-catalog", current.ID)

	catalog := decodeBody[[]CatalogProductDTO](t, do(t, router, http.MethodGet, "/api/catalog", nil))
	assert.Len(t, catalog, 4)
}

func TestScenario_Unknown(t *testing.T) {
	_, router := setupRouter(t, "")

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]ScenarioDTO](t, rec), len(scenarios))

	rec = do(t, router, http.MethodGet, "/api/scenarios/current", nil)
	assert.JSONEq(t, "null", rec.Body.String())
}

// =============================================================================
// CATALOG REFRESH SCHEDULER
// =============================================================================

const refreshCatalogYAML = `
products:
  - id: hosting
    name: Hosting
    rate_plans:
      - id: hosting-std
        name: Standard
        charges:
          - id: hosting-fee
            name: Monthly fee
            type: Recurring
            model: FlatFee
            pricing:
              - currency: EUR
                price: 99
`

func TestCatalogRefresh_ReloadsOnChange(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(refreshCatalogYAML), 0644))

	mem := store.NewMemory()
	cs := NewCatalogRefreshScheduler(path, mem, zaptest.NewLogger(t))

	// First check installs the file
	assert.True(t, cs.RunNow(ctx))
	_, err := mem.GetCatalogProduct(ctx, "hosting")
	require.NoError(t, err)

	// Unchanged file is skipped
	assert.False(t, cs.RunNow(ctx))

	// A broken edit is recorded and the installed catalog stays
	require.NoError(t, os.WriteFile(path, []byte("products: [\n"), 0644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	assert.False(t, cs.RunNow(ctx))

	runs := cs.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, "failed", runs[0].Status)
	assert.Equal(t, "completed", runs[1].Status)
	assert.Equal(t, 1, runs[1].Products)

	products, err := mem.ListCatalogProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestCatalogRefresh_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(refreshCatalogYAML), 0644))

	cs := NewCatalogRefreshScheduler(path, store.NewMemory(), zaptest.NewLogger(t))
	cs.CheckInterval = 10 * time.Millisecond
	cs.Start()

	assert.Eventually(t, func() bool { return len(cs.Runs()) > 0 }, time.Second, 10*time.Millisecond)
	cs.Stop()
	cs.Stop()
}

func TestCatalogRefresh_ExposedViaAPI(t *testing.T) {
	h, router := setupRouter(t, "")

	rec := do(t, router, http.MethodGet, "/api/catalog/refreshes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	cs := NewCatalogRefreshScheduler(filepath.Join(t.TempDir(), "missing.yaml"), h.Service.Store(), nil)
	cs.RunNow(context.Background())
	h.Refresher = cs

	runs := decodeBody[[]CatalogRefreshRun](t, do(t, router, http.MethodGet, "/api/catalog/refreshes", nil))
	require.Len(t, runs, 1)
	assert.Equal(t, "failed", runs[0].Status)
}

func TestCatalogRefresh_RestartAndRepeatedStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(refreshCatalogYAML), 0644))

	cs := NewCatalogRefreshScheduler(path, store.NewMemory(), zaptest.NewLogger(t))
	cs.CheckInterval = time.Millisecond

	// Start, Stop, Start, Stop must neither panic nor close a closed channel
	cs.Start()
	cs.Start()
	cs.Stop()
	cs.Start()
	assert.Eventually(t, func() bool { return len(cs.Runs()) > 0 }, time.Second, time.Millisecond)
	cs.Stop()
	cs.Stop()
}

func TestCatalogRefresh_StopWhileTicking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(refreshCatalogYAML), 0644))

	cs := NewCatalogRefreshScheduler(path, store.NewMemory(), nil)
	cs.CheckInterval = time.Microsecond

	for i := 0; i < 200; i++ {
		cs.Start()
		time.Sleep(200 * time.Microsecond)
		cs.Stop()
	}
}

func TestScenario_KeepsConfiguredCatalogFile(t *testing.T) {
	// GIVEN: A server whose catalog comes from a file
	h, router := setupRouter(t, "")
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(refreshCatalogYAML), 0644))
	h.Refresher = NewCatalogRefreshScheduler(path, h.Service.Store(), nil)
	require.True(t, h.Refresher.RunNow(context.Background()))

	// WHEN: Loading a scenario, which resets the store
	rec := do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "new-quote"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: The file's products are back next to the demo catalog
	rec = do(t, router, http.MethodGet, "/api/catalog/hosting", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	catalog := decodeBody[[]CatalogProductDTO](t, do(t, router, http.MethodGet, "/api/catalog", nil))
	assert.Len(t, catalog, 5)
	quotes := decodeBody[[]QuoteDTO](t, do(t, router, http.MethodGet, "/api/quotes", nil))
	assert.Len(t, quotes, 1)
}
