package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseCreated(t *testing.T) {
	m := New()

	m.ExpenseCreated(decimal.RequireFromString("0.01"))
	m.ExpenseCreated(decimal.Zero)
	m.ExpenseCreated(decimal.RequireFromString("-0.01"))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.expensesCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.remainderCents))
}

func TestObserveRPC(t *testing.T) {
	m := New()

	m.ObserveRPC("/svc/A", "ok", 10*time.Millisecond)
	m.ObserveRPC("/svc/A", "ok", 20*time.Millisecond)
	m.ObserveRPC("/svc/A", "not_found", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/svc/A", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/svc/A", "not_found")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.rpcDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRPC("/svc/A", "ok", time.Second)
		m.ExpenseCreated(decimal.RequireFromString("0.01"))
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ExpenseCreated(decimal.Zero)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "splitledger_expenses_created_total 1")
}
