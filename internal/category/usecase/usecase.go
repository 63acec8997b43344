package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/category"
	"github.com/fekuna/omnipos-backoffice/internal/category/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/pkg/cache"
	"github.com/fekuna/omnipos-backoffice/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/pkg/search"
	"go.uber.org/zap"
)

const (
	indexName    = "categories"
	listCacheTTL = 5 * time.Minute
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"merchant_id": { "type": "keyword" },
			"parent_id": { "type": "long" },
			"name": { "type": "text" },
			"is_active": { "type": "boolean" },
			"updated_at": { "type": "date" }
		}
	}
}`

// SearchIndex is the part of the Elasticsearch client the use case needs.
type SearchIndex interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
	Search(ctx context.Context, index string, query map[string]interface{}) (*search.SearchResponse, error)
	Delete(ctx context.Context, index, id string) error
}

type categoryDocument struct {
	ID         int64     `json:"id"`
	MerchantID string    `json:"merchant_id"`
	ParentID   *int64    `json:"parent_id"`
	Name       string    `json:"name"`
	IsActive   bool      `json:"is_active"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type cachedList struct {
	Categories []model.Category
	Count      int
}

type categoryUseCase struct {
	repo   category.Repository
	cache  *cache.RedisClient
	es     SearchIndex
	logger logger.ZapLogger

	indexOnce sync.Once
}

// NewCategoryUseCase wires the category reads. cache and es may be nil, in
// which case list caching and search fall back to the database.
func NewCategoryUseCase(repo category.Repository, cache *cache.RedisClient, es SearchIndex, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		cache:  cache,
		es:     es,
		logger: log,
	}
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	cacheKey := uc.cacheKey(filters)
	if cacheKey != "" {
		if val, err := uc.cache.Client.Get(ctx, cacheKey).Result(); err == nil {
			var hit cachedList
			if err := json.Unmarshal([]byte(val), &hit); err == nil {
				return hit.Categories, hit.Count, nil
			}
		}
	}

	categories, count, err := uc.list(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" {
		if data, err := json.Marshal(cachedList{Categories: categories, Count: count}); err == nil {
			if err := uc.cache.Client.Set(ctx, cacheKey, data, listCacheTTL).Err(); err != nil {
				uc.logger.Warn("failed to cache category list", zap.Error(err))
			}
		}
	}

	return categories, count, nil
}

func (uc *categoryUseCase) list(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	if filters.Search != "" && uc.es != nil {
		categories, count, err := uc.search(ctx, filters)
		if err == nil {
			return categories, count, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}
	return uc.repo.FindAll(ctx, filters)
}

func (uc *categoryUseCase) search(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	must := []map[string]interface{}{
		{
			"query_string": map[string]interface{}{
				"query":  fmt.Sprintf("*%s*", filters.Search),
				"fields": []string{"name"},
			},
		},
		{
			"term": map[string]interface{}{
				"merchant_id": filters.MerchantID,
			},
		},
	}
	if filters.IsActive != nil {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"is_active": *filters.IsActive}})
	}
	if filters.ParentID != nil && !filters.RootsOnly {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"parent_id": *filters.ParentID}})
	}

	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
	}
	if filters.RootsOnly {
		q["query"].(map[string]interface{})["bool"].(map[string]interface{})["must_not"] = []map[string]interface{}{
			{"exists": map[string]interface{}{"field": "parent_id"}},
		}
	}
	if filters.PageSize > 0 {
		page := filters.Page
		if page < 1 {
			page = 1
		}
		q["from"] = (page - 1) * filters.PageSize
		q["size"] = filters.PageSize
	}

	res, err := uc.es.Search(ctx, indexName, q)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]int64, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc categoryDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		ids = append(ids, doc.ID)
	}

	// hydrate from the database so has_children and badges are current
	categories, err := uc.repo.FindByIDs(ctx, filters.MerchantID, ids)
	if err != nil {
		return nil, 0, err
	}
	return categories, res.Hits.Total.Value, nil
}

func (uc *categoryUseCase) GetChildren(ctx context.Context, merchantID string, id int64) ([]model.Category, error) {
	return uc.repo.FindChildren(ctx, merchantID, id)
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, merchantID string, id int64) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, fmt.Errorf("category %d: %w", id, category.ErrCategoryNotFound)
	}
	return cat, nil
}

func (uc *categoryUseCase) InvalidateCache(ctx context.Context, merchantID string) {
	if uc.cache == nil {
		return
	}
	pattern := fmt.Sprintf("categories:list:%s:*", merchantID)
	iter := uc.cache.Client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		uc.logger.Warn("failed to scan category list cache", zap.String("merchant_id", merchantID), zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := uc.cache.Client.Del(ctx, keys...).Err(); err != nil {
		uc.logger.Warn("failed to invalidate category list cache",
			zap.String("merchant_id", merchantID),
			zap.Int("keys", len(keys)),
			zap.Error(err),
		)
	}
}

// IndexCategory copies the current row into the search index. A category
// that no longer exists is removed from it.
func (uc *categoryUseCase) IndexCategory(ctx context.Context, merchantID string, id int64) error {
	if uc.es == nil {
		return nil
	}

	cat, err := uc.repo.FindByID(ctx, merchantID, id)
	if err != nil {
		return err
	}
	if cat == nil {
		return uc.RemoveFromIndex(ctx, id)
	}

	uc.indexOnce.Do(func() {
		// in production the index is created by migration; this only helps local setups
		_ = uc.es.CreateIndex(ctx, indexName, indexMapping)
	})

	doc := categoryDocument{
		ID:         cat.ID,
		MerchantID: cat.MerchantID,
		ParentID:   cat.ParentID,
		Name:       cat.Name,
		IsActive:   cat.IsActive,
		UpdatedAt:  cat.UpdatedAt,
	}
	if err := uc.es.Index(ctx, indexName, strconv.FormatInt(cat.ID, 10), doc); err != nil {
		return fmt.Errorf("index category %d: %w", id, err)
	}
	return nil
}

func (uc *categoryUseCase) RemoveFromIndex(ctx context.Context, id int64) error {
	if uc.es == nil {
		return nil
	}
	return uc.es.Delete(ctx, indexName, strconv.FormatInt(id, 10))
}

func (uc *categoryUseCase) cacheKey(filters *dto.CategoryFilters) string {
	if uc.cache == nil {
		return ""
	}
	data, err := json.Marshal(filters)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("categories:list:%s:%x", filters.MerchantID, md5.Sum(data))
}
