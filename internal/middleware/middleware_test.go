package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
)

// whoAmI echoes the caller identity found in the context.
type whoAmI struct{}

func (whoAmI) ListUsers(ctx context.Context, _ *connect.Request[api.ListUsersRequest]) (*connect.Response[api.ListUsersResponse], error) {
	return connect.NewResponse(&api.ListUsersResponse{
		Users: []*api.User{{ID: GetUserID(ctx), Email: GetEmail(ctx)}},
	}), nil
}

type healthy struct{}

func (healthy) Check(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func setupServer(t *testing.T, interceptors ...connect.Interceptor) (*api.UserServiceClient, *api.HealthServiceClient) {
	t.Helper()

	opts := connect.WithInterceptors(interceptors...)
	mux := http.NewServeMux()
	mux.Handle(api.NewUserServiceHandler(whoAmI{}, opts))
	mux.Handle(api.NewHealthServiceHandler(healthy{}, opts))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return api.NewUserServiceClient(http.DefaultClient, server.URL),
		api.NewHealthServiceClient(http.DefaultClient, server.URL)
}

func withToken(token string) *connect.Request[api.ListUsersRequest] {
	req := connect.NewRequest(&api.ListUsersRequest{})
	if token != "" {
		req.Header().Set("Authorization", token)
	}
	return req
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret-key-that-is-long-enough", time.Hour)
	users, health := setupServer(t, RequireAuth(jwtManager, api.IsPublicProcedure))
	ctx := context.Background()

	token, err := jwtManager.Generate(&models.User{ID: "user-1", Email: "alice@example.com"})
	require.NoError(t, err)

	t.Run("valid token populates context", func(t *testing.T) {
		resp, err := users.ListUsers(ctx, withToken("Bearer "+token))
		require.NoError(t, err)
		require.Len(t, resp.Msg.Users, 1)
		assert.Equal(t, "user-1", resp.Msg.Users[0].ID)
		assert.Equal(t, "alice@example.com", resp.Msg.Users[0].Email)
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		resp, err := users.ListUsers(ctx, withToken("bearer "+token))
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", resp.Msg.Users[0].Email)
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"scheme only", "Bearer "},
		{"wrong scheme", "Basic " + token},
		{"garbage token", "Bearer not-a-jwt"},
		{"extra parts", "Bearer " + token + " extra"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.ListUsers(ctx, withToken(tt.header))
			require.Error(t, err)
			assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
		})
	}

	t.Run("public procedure skips auth", func(t *testing.T) {
		_, err := health.Check(ctx, connect.NewRequest(&emptypb.Empty{}))
		assert.NoError(t, err)
	})
}

func TestRequireAuth_NilPredicateProtectsEverything(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret-key-that-is-long-enough", time.Hour)
	_, health := setupServer(t, RequireAuth(jwtManager, nil))

	_, err := health.Check(context.Background(), connect.NewRequest(&emptypb.Empty{}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}

func TestMetricsInterceptor(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret-key-that-is-long-enough", time.Hour)
	m := metrics.New()
	users, health := setupServer(t, MetricsInterceptor(m), RequireAuth(jwtManager, api.IsPublicProcedure))
	ctx := context.Background()

	_, err := health.Check(ctx, connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err)
	_, err = users.ListUsers(ctx, withToken(""))
	require.Error(t, err)

	body := scrape(t, m)
	assert.Contains(t, body, `splitledger_rpc_requests_total{code="ok",procedure="/splitledger.v1.HealthService/Check"} 1`)
	assert.Contains(t, body, `splitledger_rpc_requests_total{code="unauthenticated",procedure="/splitledger.v1.UserService/ListUsers"} 1`)
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	jwtManager := auth.NewJWTManager("test-secret-key-that-is-long-enough", time.Hour)
	users, health := setupServer(t, RequireAuth(jwtManager, api.IsPublicProcedure), LoggingInterceptor(logger))
	ctx := context.Background()

	_, err := health.Check(ctx, connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "RPC ok")
	assert.Contains(t, buf.String(), api.HealthServiceCheckProcedure)

	token, err := jwtManager.Generate(&models.User{ID: "user-7", Email: "g@example.com"})
	require.NoError(t, err)
	_, err = users.ListUsers(ctx, withToken("Bearer "+token))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "user_id=user-7")
}

func TestClientFault(t *testing.T) {
	assert.True(t, clientFault(connect.CodeInvalidArgument))
	assert.True(t, clientFault(connect.CodePermissionDenied))
	assert.False(t, clientFault(connect.CodeInternal))
	assert.False(t, clientFault(connect.CodeOf(errors.New("plain"))))
}

func TestCORS(t *testing.T) {
	handler := CORS("https://app.example.com", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	handler := AccessLog(logger, http.NotFoundHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Contains(t, buf.String(), "path=/missing")
	assert.Contains(t, buf.String(), "status=404")
}
