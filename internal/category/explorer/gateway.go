package explorer

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-backoffice/internal/category/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
)

var (
	ErrNodeNotFound = errors.New("category node not found")
	ErrFetchFailed  = errors.New("category fetch failed")
)

// Gateway is the remote data source of one merchant's categories.
type Gateway interface {
	ListCategories(ctx context.Context, filter *dto.CategoryFilters) ([]*model.CategoryNode, error)
	GetChildren(ctx context.Context, categoryID int64) ([]*model.CategoryNode, error)
	GetCategory(ctx context.Context, categoryID int64) (*model.CategoryDetail, error)
}

// StateStore persists which nodes are expanded so a reloaded tree can be
// reopened where the user left it.
type StateStore interface {
	Save(ctx context.Context, ids []int64) error
	Load(ctx context.Context) ([]int64, error)
}

// Notifier surfaces recovered failures to the user, typically as a toast.
type Notifier interface {
	NotifyError(categoryID int64, err error)
}
