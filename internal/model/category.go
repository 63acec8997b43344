package model

import "time"

// Category is a row of the categories table.
type Category struct {
	BaseModel
	MerchantID   string  `db:"merchant_id" json:"merchant_id"`
	ParentID     *int64  `db:"parent_id" json:"parent_id"` // Nullable
	Name         string  `db:"name" json:"name"`
	Description  *string `db:"description" json:"description"`
	ImageURL     *string `db:"image_url" json:"image_url"`
	SortOrder    int     `db:"sort_order" json:"sort_order"`
	IsActive     bool    `db:"is_active" json:"is_active"`
	IsFeatured   bool    `db:"is_featured" json:"is_featured"`
	IsBestSeller bool    `db:"is_best_seller" json:"is_best_seller"`
	HasChildren  bool    `db:"has_children" json:"has_children"` // Computed, not a column
}

// CategoryNode is one entry of the explorer forest. Nodes are treated as
// immutable once they are part of a published forest; updates go through
// tree.PatchNode.
type CategoryNode struct {
	ID          int64
	Title       string
	ParentID    *int64
	HasChildren bool
	Children    []*CategoryNode

	IsLoading  bool
	IsExpanded bool

	IsFeaturedCategory   bool
	IsBestSellerCategory bool
}

// CategoryDetail is the full record shown in the detail pane.
type CategoryDetail struct {
	ID                   int64     `json:"id"`
	MerchantID           string    `json:"merchant_id"`
	ParentID             *int64    `json:"parent_id,omitempty"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	ImageURL             string    `json:"image_url"`
	SortOrder            int       `json:"sort_order"`
	IsActive             bool      `json:"is_active"`
	IsFeaturedCategory   bool      `json:"is_featured_category"`
	IsBestSellerCategory bool      `json:"is_best_seller_category"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (c *Category) Node() *CategoryNode {
	return &CategoryNode{
		ID:                   c.ID,
		Title:                c.Name,
		ParentID:             c.ParentID,
		HasChildren:          c.HasChildren,
		Children:             []*CategoryNode{},
		IsFeaturedCategory:   c.IsFeatured,
		IsBestSellerCategory: c.IsBestSeller,
	}
}

func (c *Category) Detail() *CategoryDetail {
	d := &CategoryDetail{
		ID:                   c.ID,
		MerchantID:           c.MerchantID,
		ParentID:             c.ParentID,
		Title:                c.Name,
		SortOrder:            c.SortOrder,
		IsActive:             c.IsActive,
		IsFeaturedCategory:   c.IsFeatured,
		IsBestSellerCategory: c.IsBestSeller,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
	if c.Description != nil {
		d.Description = *c.Description
	}
	if c.ImageURL != nil {
		d.ImageURL = *c.ImageURL
	}
	return d
}
