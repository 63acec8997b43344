package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-backoffice/internal/category/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/jmoiron/sqlx"
)

// selectColumns reads a category row plus whether any category points at it.
const selectColumns = `
        c.id, c.merchant_id, c.parent_id, c.name, c.description, c.image_url,
        c.sort_order, c.is_active, c.is_featured, c.is_best_seller, c.created_at, c.updated_at,
        EXISTS (SELECT 1 FROM categories ch WHERE ch.parent_id = c.id) AS has_children`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindByID(ctx context.Context, merchantID string, id int64) (*model.Category, error) {
	var category model.Category
	query := `SELECT` + selectColumns + ` FROM categories c WHERE c.id = $1 AND c.merchant_id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &category, query, id, merchantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// FindByIDs keeps the order of ids; unknown ids are skipped.
func (r *PGRepository) FindByIDs(ctx context.Context, merchantID string, ids []int64) ([]model.Category, error) {
	if len(ids) == 0 {
		return []model.Category{}, nil
	}

	query, args, err := sqlx.In(`SELECT`+selectColumns+` FROM categories c WHERE c.merchant_id = ? AND c.id IN (?)`, merchantID, ids)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var rows []model.Category
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	byID := make(map[int64]model.Category, len(rows))
	for _, c := range rows {
		byID[c.ID] = c
	}
	out := make([]model.Category, 0, len(rows))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, int, error) {
	var categories []model.Category
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.MerchantID != "" {
		conditions = append(conditions, "c.merchant_id = :merchant_id")
		args["merchant_id"] = f.MerchantID
	}
	if f.RootsOnly {
		conditions = append(conditions, "c.parent_id IS NULL")
	} else if f.ParentID != nil {
		conditions = append(conditions, "c.parent_id = :parent_id")
		args["parent_id"] = *f.ParentID
	}
	if f.IsActive != nil {
		conditions = append(conditions, "c.is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.Search != "" {
		conditions = append(conditions, "c.name ILIKE :search")
		args["search"] = "%" + f.Search + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM categories c" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	if rows.Next() {
		err = rows.Scan(&count)
	}
	rows.Close()
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT" + selectColumns + " FROM categories c" + whereClause + " ORDER BY c.sort_order ASC, c.name ASC"

	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &categories, args)
	if err != nil {
		return nil, 0, err
	}

	return categories, count, nil
}

func (r *PGRepository) FindChildren(ctx context.Context, merchantID string, parentID int64) ([]model.Category, error) {
	var categories []model.Category
	query := `SELECT` + selectColumns + ` FROM categories c
        WHERE c.merchant_id = $1 AND c.parent_id = $2
        ORDER BY c.sort_order ASC, c.name ASC`
	err := r.DB.SelectContext(ctx, &categories, query, merchantID, parentID)
	if err != nil {
		return nil, err
	}
	return categories, nil
}
