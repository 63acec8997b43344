package dto

type CategoryFilters struct {
	MerchantID string
	ParentID   *int64 // Nil means ignore
	RootsOnly  bool   // parent_id IS NULL
	Search     string // Title search, served by Elasticsearch when available
	IsActive   *bool
	Page       int
	PageSize   int
}
