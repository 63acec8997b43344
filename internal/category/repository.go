package category

import (
	"context"

	"github.com/fekuna/omnipos-backoffice/internal/category/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
)

type Repository interface {
	FindByID(ctx context.Context, merchantID string, id int64) (*model.Category, error)
	FindByIDs(ctx context.Context, merchantID string, ids []int64) ([]model.Category, error)
	FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	FindChildren(ctx context.Context, merchantID string, parentID int64) ([]model.Category, error)
}
