package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

var (
	// ErrSelfSettlement is returned when a member tries to pay themself.
	ErrSelfSettlement = errors.New("cannot settle with yourself")
	// ErrRecipientNotMember is returned when the payee is not in the group.
	ErrRecipientNotMember = errors.New("recipient is not a member of the group")
)

// SettlementService records payments between members. Settlements are kept
// for reference only and are not netted into the balance summary.
type SettlementService struct {
	store  storage.Store
	logger *slog.Logger
}

func NewSettlementService(store storage.Store, logger *slog.Logger) *SettlementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettlementService{store: store, logger: logger}
}

// RecordSettlement stores a pending payment from the caller to another member.
func (s *SettlementService) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate(req.Msg); err != nil {
		return nil, err
	}

	group, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if req.Msg.ToUserID == userID {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrSelfSettlement)
	}
	if !group.HasMember(req.Msg.ToUserID) {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrRecipientNotMember)
	}

	settlement := &models.Settlement{
		GroupID:    group.ID,
		FromUserID: userID,
		ToUserID:   req.Msg.ToUserID,
		Amount:     decimal.RequireFromString(req.Msg.Amount),
		Status:     models.SettlementPending,
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		s.logger.Error("RecordSettlement failed", "group_id", group.ID, "error", err)
		return nil, storeError(err)
	}

	s.logger.Info("Settlement recorded",
		"settlement_id", settlement.ID,
		"group_id", group.ID,
		"from", userID,
		"to", req.Msg.ToUserID,
	)

	return connect.NewResponse(&api.RecordSettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// ListSettlements returns a group's settlements, newest first.
func (s *SettlementService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate(req.Msg); err != nil {
		return nil, err
	}

	if _, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}

	settlements, err := s.store.ListSettlementsByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		s.logger.Error("ListSettlements failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}

	out := make([]*api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toAPISettlement(st)
	}

	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}
