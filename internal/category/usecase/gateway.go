package usecase

import (
	"context"

	"github.com/fekuna/omnipos-backoffice/internal/category"
	"github.com/fekuna/omnipos-backoffice/internal/category/dto"
	"github.com/fekuna/omnipos-backoffice/internal/category/explorer"
	"github.com/fekuna/omnipos-backoffice/internal/model"
)

type merchantGateway struct {
	uc         category.UseCase
	merchantID string
}

// NewMerchantGateway binds the use case to one merchant for the explorer.
func NewMerchantGateway(uc category.UseCase, merchantID string) explorer.Gateway {
	return &merchantGateway{uc: uc, merchantID: merchantID}
}

func (g *merchantGateway) ListCategories(ctx context.Context, filter *dto.CategoryFilters) ([]*model.CategoryNode, error) {
	f := dto.CategoryFilters{}
	if filter != nil {
		f = *filter
	}
	f.MerchantID = g.merchantID

	cats, _, err := g.uc.ListCategories(ctx, &f)
	if err != nil {
		return nil, err
	}
	return toNodes(cats), nil
}

func (g *merchantGateway) GetChildren(ctx context.Context, categoryID int64) ([]*model.CategoryNode, error) {
	cats, err := g.uc.GetChildren(ctx, g.merchantID, categoryID)
	if err != nil {
		return nil, err
	}
	return toNodes(cats), nil
}

func (g *merchantGateway) GetCategory(ctx context.Context, categoryID int64) (*model.CategoryDetail, error) {
	cat, err := g.uc.GetCategory(ctx, g.merchantID, categoryID)
	if err != nil {
		return nil, err
	}
	return cat.Detail(), nil
}

func toNodes(cats []model.Category) []*model.CategoryNode {
	nodes := make([]*model.CategoryNode, len(cats))
	for i := range cats {
		nodes[i] = cats[i].Node()
	}
	return nodes
}
