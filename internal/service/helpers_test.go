package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api"
)

// testUserHeader carries the caller identity in tests in place of a JWT.
const testUserHeader = "X-Test-User"

// testAuthInterceptor injects the user ID from testUserHeader into the context.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if id := req.Header().Get(testUserHeader); id != "" {
				ctx = context.WithValue(ctx, middleware.UserIDKey, id)
			}
			return next(ctx, req)
		}
	}
}

type testEnv struct {
	store       *sqlite.SQLiteStore
	metrics     *metrics.Metrics
	expenses    *api.ExpenseServiceClient
	groups      *api.GroupServiceClient
	users       *api.UserServiceClient
	settlements *api.SettlementServiceClient
}

// newTestEnv serves every domain service over httptest on a temp SQLite store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create store")

	logger := slog.New(slog.DiscardHandler)
	m := metrics.New()
	opts := connect.WithInterceptors(testAuthInterceptor())

	mux := http.NewServeMux()
	mux.Handle(api.NewExpenseServiceHandler(NewExpenseService(store, m, logger), opts))
	mux.Handle(api.NewGroupServiceHandler(NewGroupService(store, logger), opts))
	mux.Handle(api.NewUserServiceHandler(NewUserService(store, logger), opts))
	mux.Handle(api.NewSettlementServiceHandler(NewSettlementService(store, logger), opts))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		store:       store,
		metrics:     m,
		expenses:    api.NewExpenseServiceClient(http.DefaultClient, server.URL),
		groups:      api.NewGroupServiceClient(http.DefaultClient, server.URL),
		users:       api.NewUserServiceClient(http.DefaultClient, server.URL),
		settlements: api.NewSettlementServiceClient(http.DefaultClient, server.URL),
	}
}

// as wraps msg in a request made by userID.
func as[T any](userID string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set(testUserHeader, userID)
	return req
}

// user creates an account directly in the store and returns its ID.
func (e *testEnv) user(t *testing.T, email, name string) string {
	t.Helper()
	u := models.NewUser(email, name, "hash")
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u.ID
}

// group creates a group owned by owner through the API and adds members.
func (e *testEnv) group(t *testing.T, name, owner string, members ...string) string {
	t.Helper()
	ctx := context.Background()

	resp, err := e.groups.CreateGroup(ctx, as(owner, &api.CreateGroupRequest{Name: name}))
	require.NoError(t, err)

	for _, m := range members {
		_, err := e.groups.AddMember(ctx, as(owner, &api.AddMemberRequest{GroupID: resp.Msg.Group.ID, UserID: m}))
		require.NoError(t, err)
	}
	return resp.Msg.Group.ID
}

// expense records an expense paid by payer, made by the payer.
func (e *testEnv) expense(t *testing.T, groupID, payer, amount string) *api.CreateExpenseResponse {
	t.Helper()
	resp, err := e.expenses.CreateExpense(context.Background(), as(payer, &api.CreateExpenseRequest{
		GroupID: groupID,
		PaidBy:  payer,
		Amount:  amount,
	}))
	require.NoError(t, err)
	return resp.Msg
}

func (e *testEnv) summary(t *testing.T, userID string) *api.Summary {
	t.Helper()
	resp, err := e.expenses.GetSummary(context.Background(), as(userID, &api.GetSummaryRequest{}))
	require.NoError(t, err)
	return resp.Msg.Summary
}

func (e *testEnv) scrapeMetrics(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}
