package category

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-backoffice/internal/category/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
)

var ErrCategoryNotFound = errors.New("category not found")

type UseCase interface {
	ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	GetChildren(ctx context.Context, merchantID string, id int64) ([]model.Category, error)
	GetCategory(ctx context.Context, merchantID string, id int64) (*model.Category, error)
	InvalidateCache(ctx context.Context, merchantID string)
	IndexCategory(ctx context.Context, merchantID string, id int64) error
	RemoveFromIndex(ctx context.Context, id int64) error
}
