package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthService reports whether the server can reach its store.
type HealthService struct {
	store  pinger
	logger *slog.Logger
}

func NewHealthService(store pinger, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{store: store, logger: logger}
}

// Check returns Unavailable when the store does not answer a ping.
func (s *HealthService) Check(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("Health check failed", "error", err)
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}
