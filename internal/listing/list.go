// Package listing holds the paginated, filterable list state shared by the
// back-office resource grids.
package listing

import (
	"context"
	"sync"
)

const DefaultPageSize = 20

type Query[F any] struct {
	Filter   F
	Page     int // 1-based
	PageSize int
}

type Page[T any] struct {
	Items []T
	Total int
}

type Fetcher[T, F any] func(ctx context.Context, q Query[F]) (Page[T], error)

type State[T, F any] struct {
	Filter     F
	Items      []T
	Total      int
	Page       int
	PageSize   int
	TotalPages int
	IsLoading  bool
	Err        error
}

// List keeps one grid's query and its latest result. Only the response of
// the most recent request is applied.
type List[T, F any] struct {
	fetch Fetcher[T, F]

	mu    sync.Mutex
	seq   uint64
	state State[T, F]
}

func New[T, F any](fetch Fetcher[T, F], filter F, pageSize int) *List[T, F] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &List[T, F]{
		fetch: fetch,
		state: State[T, F]{
			Filter:   filter,
			Page:     1,
			PageSize: pageSize,
		},
	}
}

// Load fetches the current page. A failed load keeps the previous items and
// records the error.
func (l *List[T, F]) Load(ctx context.Context) error {
	_, err := l.load(ctx, nil)
	return err
}

// load applies update and snapshots the query under one lock, so the
// returned state is always the result of this call's own query.
func (l *List[T, F]) load(ctx context.Context, update func(*State[T, F])) (State[T, F], error) {
	l.mu.Lock()
	if update != nil {
		update(&l.state)
	}
	l.seq++
	tag := l.seq
	l.state.IsLoading = true
	q := Query[F]{Filter: l.state.Filter, Page: l.state.Page, PageSize: l.state.PageSize}
	l.mu.Unlock()

	page, err := l.fetch(ctx, q)

	own := State[T, F]{
		Filter:   q.Filter,
		Page:     q.Page,
		PageSize: q.PageSize,
		Err:      err,
	}
	if err == nil {
		own.Items = page.Items
		own.Total = page.Total
		own.TotalPages = totalPages(page.Total, q.PageSize)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if tag != l.seq {
		return own, err
	}

	l.state.IsLoading = false
	l.state.Err = err
	if err != nil {
		return own, err
	}
	l.state.Items = own.Items
	l.state.Total = own.Total
	l.state.TotalPages = own.TotalPages
	return own, nil
}

// SetFilter replaces the filter, goes back to the first page and reloads.
func (l *List[T, F]) SetFilter(ctx context.Context, filter F) error {
	l.mu.Lock()
	l.state.Filter = filter
	l.state.Page = 1
	l.mu.Unlock()
	return l.Load(ctx)
}

func (l *List[T, F]) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	l.mu.Lock()
	l.state.Page = page
	l.mu.Unlock()
	return l.Load(ctx)
}

func (l *List[T, F]) SetPageSize(ctx context.Context, size int) error {
	if size <= 0 {
		size = DefaultPageSize
	}
	l.mu.Lock()
	l.state.PageSize = size
	l.state.Page = 1
	l.mu.Unlock()
	return l.Load(ctx)
}

// Apply sets filter, page and page size together and loads once. Zero page
// and page size fall back to the first page and the current size. The
// returned state is the result of this query even if a later call has
// already replaced it in the list.
func (l *List[T, F]) Apply(ctx context.Context, q Query[F]) (State[T, F], error) {
	return l.load(ctx, func(st *State[T, F]) {
		st.Filter = q.Filter
		st.Page = max(q.Page, 1)
		if q.PageSize > 0 {
			st.PageSize = q.PageSize
		}
	})
}

func (l *List[T, F]) Refresh(ctx context.Context) error {
	return l.Load(ctx)
}

func (l *List[T, F]) State() State[T, F] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func totalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
