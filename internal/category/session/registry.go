// Package session keeps one category explorer and one category grid per
// merchant using the back office.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/fekuna/omnipos-backoffice/internal/category"
	"github.com/fekuna/omnipos-backoffice/internal/category/dto"
	"github.com/fekuna/omnipos-backoffice/internal/category/explorer"
	"github.com/fekuna/omnipos-backoffice/internal/category/usecase"
	"github.com/fekuna/omnipos-backoffice/internal/listing"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/pkg/logger"
	"go.uber.org/zap"
)

// StateStores hands out the expansion state store of a merchant.
type StateStores interface {
	ForMerchant(merchantID string) explorer.StateStore
}

type (
	Grid      = listing.List[model.Category, dto.CategoryFilters]
	GridState = listing.State[model.Category, dto.CategoryFilters]
)

type Session struct {
	MerchantID string
	Explorer   *explorer.Controller
	Grid       *Grid
}

type entry struct {
	ready   chan struct{} // closed once session and err are set
	session *Session
	err     error
}

type Registry struct {
	uc       category.UseCase
	states   StateStores
	logger   logger.ZapLogger
	pageSize int

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry builds sessions on demand. states may be nil to keep
// expansion state in memory only.
func NewRegistry(uc category.UseCase, states StateStores, pageSize int, log logger.ZapLogger) *Registry {
	return &Registry{
		uc:       uc,
		states:   states,
		logger:   log,
		pageSize: pageSize,
		sessions: make(map[string]*entry),
	}
}

// Get returns the merchant's session, opening and loading it on first use.
// A session whose first load failed is forgotten so the next call retries.
func (r *Registry) Get(ctx context.Context, merchantID string) (*Session, error) {
	r.mu.Lock()
	e, ok := r.sessions[merchantID]
	if ok {
		r.mu.Unlock()
		select {
		case <-e.ready:
			return e.session, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e = &entry{ready: make(chan struct{})}
	r.sessions[merchantID] = e
	r.mu.Unlock()

	e.session, e.err = r.open(ctx, merchantID)
	close(e.ready)

	if e.err != nil {
		r.mu.Lock()
		if r.sessions[merchantID] == e {
			delete(r.sessions, merchantID)
		}
		r.mu.Unlock()
	}
	return e.session, e.err
}

// ReloadMerchant refreshes an open session after its categories changed.
// Merchants without a session are skipped.
func (r *Registry) ReloadMerchant(ctx context.Context, merchantID string) error {
	r.mu.Lock()
	e := r.sessions[merchantID]
	r.mu.Unlock()
	if e == nil {
		return nil
	}

	select {
	case <-e.ready:
	default:
		// still opening; it reads the current categories anyway
		return nil
	}
	s := e.session
	if s == nil {
		return nil
	}

	return errors.Join(
		s.Explorer.Reload(ctx, s.Explorer.Filter()),
		s.Grid.Refresh(ctx),
	)
}

func (r *Registry) open(ctx context.Context, merchantID string) (*Session, error) {
	log := r.logger.With(zap.String("merchant_id", merchantID))

	opts := []explorer.Option{explorer.WithNotifier(&logNotifier{logger: log})}
	if r.states != nil {
		opts = append(opts, explorer.WithStateStore(r.states.ForMerchant(merchantID)))
	}

	ctrl := explorer.NewController(usecase.NewMerchantGateway(r.uc, merchantID), log, opts...)
	if err := ctrl.Reload(ctx, &dto.CategoryFilters{RootsOnly: true}); err != nil {
		return nil, err
	}

	grid := listing.New(r.gridFetcher(merchantID), dto.CategoryFilters{}, r.pageSize)

	log.Info("opened category explorer session", zap.Int("roots", len(ctrl.Forest())))
	return &Session{MerchantID: merchantID, Explorer: ctrl, Grid: grid}, nil
}

func (r *Registry) gridFetcher(merchantID string) listing.Fetcher[model.Category, dto.CategoryFilters] {
	return func(ctx context.Context, q listing.Query[dto.CategoryFilters]) (listing.Page[model.Category], error) {
		f := q.Filter
		f.MerchantID = merchantID
		f.Page = q.Page
		f.PageSize = q.PageSize

		cats, total, err := r.uc.ListCategories(ctx, &f)
		if err != nil {
			return listing.Page[model.Category]{}, err
		}
		return listing.Page[model.Category]{Items: cats, Total: total}, nil
	}
}

// logNotifier stands in for the UI toast. Clients see failed child fetches
// as last_error in the snapshot and failed detail loads as an empty record.
type logNotifier struct {
	logger logger.ZapLogger
}

func (n *logNotifier) NotifyError(categoryID int64, err error) {
	n.logger.Warn("category load failed", zap.Int64("category_id", categoryID), zap.Error(err))
}
