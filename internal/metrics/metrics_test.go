package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-watch/internal/core"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestObserver(t *testing.T) {
	m := New()
	m.ObserveOutcome(core.OutcomeRecorded)
	m.ObserveOutcome(core.OutcomeRecorded)
	m.ObserveOutcome(core.OutcomeNotReady)
	m.SetLedgerRows(7)
	m.ObserveExtract(120 * time.Millisecond)
	m.ObserveConfidence(0.35)

	body := scrape(t, m)
	assert.Contains(t, body, `invoice_watch_files_total{outcome="recorded"} 2`)
	assert.Contains(t, body, `invoice_watch_files_total{outcome="not_ready"} 1`)
	assert.Contains(t, body, `invoice_watch_files_total{outcome="failed"} 0`)
	assert.Contains(t, body, "invoice_watch_ledger_rows 7")
	assert.Contains(t, body, "invoice_watch_extract_seconds_count 1")
	assert.Contains(t, body, `invoice_watch_text_confidence_bucket{le="0.4"} 1`)
	assert.Contains(t, body, `invoice_watch_text_confidence_bucket{le="0.2"} 0`)
	assert.Contains(t, body, "invoice_watch_text_confidence_count 1")
}

func TestFreshRegistry(t *testing.T) {
	body := scrape(t, New())
	assert.Contains(t, body, `invoice_watch_files_total{outcome="skipped"} 0`)
	assert.Contains(t, body, "invoice_watch_ledger_rows 0")
	assert.Contains(t, body, "invoice_watch_extract_seconds_count 0")
}
