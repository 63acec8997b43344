package handler

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/category/dto"
	"github.com/fekuna/omnipos-backoffice/internal/category/explorer"
	"github.com/fekuna/omnipos-backoffice/internal/category/session"
	"github.com/fekuna/omnipos-backoffice/internal/listing"
	"github.com/fekuna/omnipos-backoffice/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var _ CategoryExplorerServiceServer = (*CategoryHandler)(nil)

type Sessions interface {
	Get(ctx context.Context, merchantID string) (*session.Session, error)
}

type CategoryHandler struct {
	sessions Sessions
	logger   logger.ZapLogger
}

func NewCategoryHandler(sessions Sessions, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		sessions: sessions,
		logger:   log,
	}
}

func (h *CategoryHandler) session(ctx context.Context) (*session.Session, error) {
	merchantID := auth.GetMerchantID(ctx)
	if merchantID == "" {
		return nil, status.Error(codes.Unauthenticated, "missing merchant context")
	}

	s, err := h.sessions.Get(ctx, merchantID)
	if err != nil {
		h.logger.Error("failed to open category explorer", zap.String("merchant_id", merchantID), zap.Error(err))
		return nil, toStatus(err)
	}
	return s, nil
}

func (h *CategoryHandler) GetForest(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s, err := h.session(ctx)
	if err != nil {
		return nil, err
	}
	return snapshotResponse(s.Explorer.Snapshot())
}

func (h *CategoryHandler) Reload(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s, err := h.session(ctx)
	if err != nil {
		return nil, err
	}

	filter := filterFromStruct(req)
	if err := s.Explorer.Reload(ctx, &filter); err != nil {
		h.logger.Error("failed to reload category explorer", zap.String("merchant_id", s.MerchantID), zap.Error(err))
		return nil, toStatus(err)
	}
	return snapshotResponse(s.Explorer.Snapshot())
}

func (h *CategoryHandler) Expand(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	s, err := h.session(ctx)
	if err != nil {
		return nil, err
	}

	// A failed fetch is recovered inside the explorer: the node is left
	// collapsed and the snapshot carries last_error.
	if err := s.Explorer.Expand(ctx, req.GetValue()); err != nil {
		if !errors.Is(err, explorer.ErrFetchFailed) {
			return nil, toStatus(err)
		}
		h.logger.Warn("failed to load category children", zap.Int64("category_id", req.GetValue()), zap.Error(err))
	}
	return snapshotResponse(s.Explorer.Snapshot())
}

func (h *CategoryHandler) Collapse(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	s, err := h.session(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.Explorer.Collapse(ctx, req.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return snapshotResponse(s.Explorer.Snapshot())
}

func (h *CategoryHandler) Select(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	s, err := h.session(ctx)
	if err != nil {
		return nil, err
	}

	s.Explorer.Select(ctx, req.GetValue())
	return snapshotResponse(s.Explorer.Snapshot())
}

func (h *CategoryHandler) ClearSelection(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s, err := h.session(ctx)
	if err != nil {
		return nil, err
	}

	s.Explorer.ClearSelection()
	return snapshotResponse(s.Explorer.Snapshot())
}

func (h *CategoryHandler) RefreshDetail(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s, err := h.session(ctx)
	if err != nil {
		return nil, err
	}

	s.Explorer.RefreshDetail(ctx)
	return snapshotResponse(s.Explorer.Snapshot())
}

func (h *CategoryHandler) ListCategories(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s, err := h.session(ctx)
	if err != nil {
		return nil, err
	}

	filter := filterFromStruct(req)
	q := listing.Query[dto.CategoryFilters]{
		Filter:   filter,
		Page:     intField(req, "page"),
		PageSize: intField(req, "page_size"),
	}
	st, err := s.Grid.Apply(ctx, q)
	if err != nil {
		h.logger.Error("failed to list categories", zap.String("merchant_id", s.MerchantID), zap.Error(err))
		return nil, status.Error(codes.Unavailable, "categories are unavailable")
	}
	return listResponse(st)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, explorer.ErrNodeNotFound):
		return status.Error(codes.NotFound, "category not found")
	case errors.Is(err, explorer.ErrFetchFailed):
		return status.Error(codes.Unavailable, "categories are unavailable")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
