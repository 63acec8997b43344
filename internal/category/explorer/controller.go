// Package explorer implements the category explorer: a lazily loaded
// category tree, the selected node and the detail pane of that node.
package explorer

import (
	"context"
	"fmt"
	"sync"

	"github.com/fekuna/omnipos-backoffice/internal/category/dto"
	"github.com/fekuna/omnipos-backoffice/internal/category/tree"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const restoreConcurrency = 8

// Snapshot is a consistent read of the explorer state. Forest must be
// treated as read only.
type Snapshot struct {
	Forest       tree.Forest
	SelectedID   int64
	HasSelection bool
	Detail       DetailState
	Version      uint64

	// LastFailure is the latest failed child fetch, nil once that node
	// expands successfully or the forest is reloaded.
	LastFailure *ExpandFailure
}

type ExpandFailure struct {
	CategoryID int64
	Err        error
}

type Option func(*Controller)

// WithStateStore persists expanded nodes after every expand and collapse and
// reopens them after a reload.
func WithStateStore(s StateStore) Option {
	return func(c *Controller) { c.store = s }
}

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

type Controller struct {
	gw       Gateway
	store    StateStore
	notifier Notifier
	detail   *DetailPane
	logger   logger.ZapLogger

	mu          sync.Mutex
	forest      tree.Forest
	selected    int64
	hasSelected bool
	filter      *dto.CategoryFilters
	generation  uint64 // bumped by Reload; fetches started before are dropped
	version     uint64
	inflight    map[int64]struct{}
	lastFailure *ExpandFailure

	persistMu sync.Mutex
}

func NewController(gw Gateway, log logger.ZapLogger, opts ...Option) *Controller {
	c := &Controller{
		gw:       gw,
		logger:   log,
		forest:   tree.Forest{},
		inflight: make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.detail = NewDetailPane(gw, c.notifier, log)
	return c
}

// Reload discards the whole forest and rebuilds it from the gateway. The
// selection survives a reload. On failure the current forest is kept.
func (c *Controller) Reload(ctx context.Context, filter *dto.CategoryFilters) error {
	flat, err := c.gw.ListCategories(ctx, filter)
	if err != nil {
		return fmt.Errorf("reload categories: %w: %w", ErrFetchFailed, err)
	}

	forest, orphans := tree.BuildForest(flat)
	if len(orphans) > 0 {
		c.logger.Warn("dropping categories with cyclic ancestry", zap.Int64s("category_ids", orphans))
	}

	c.mu.Lock()
	c.forest = forest
	c.filter = filter
	c.generation++
	c.inflight = make(map[int64]struct{})
	c.lastFailure = nil
	c.version++
	c.mu.Unlock()

	c.logger.Debug("category forest reloaded", zap.Int("roots", len(forest)), zap.Int("categories", len(flat)))

	if c.store != nil {
		c.restore(ctx)
	}
	return nil
}

// Expand opens a node. Cached children are shown without a fetch; otherwise
// the children are fetched once, and calls made while that fetch is running
// return immediately. A leaf is left alone.
func (c *Controller) Expand(ctx context.Context, categoryID int64) error {
	if err := c.expand(ctx, categoryID); err != nil {
		return err
	}
	c.persist(ctx)
	return nil
}

func (c *Controller) expand(ctx context.Context, categoryID int64) error {
	c.mu.Lock()
	n := tree.FindNode(c.forest, categoryID)
	if n == nil {
		c.mu.Unlock()
		return fmt.Errorf("expand category %d: %w", categoryID, ErrNodeNotFound)
	}
	if !n.HasChildren {
		c.mu.Unlock()
		return nil
	}
	if len(n.Children) > 0 {
		c.forest = tree.PatchNode(c.forest, categoryID, tree.Patch{IsExpanded: tree.Bool(!n.IsExpanded)})
		c.version++
		c.mu.Unlock()
		return nil
	}
	if _, busy := c.inflight[categoryID]; busy || n.IsLoading {
		c.mu.Unlock()
		return nil
	}
	c.inflight[categoryID] = struct{}{}
	c.forest = tree.PatchNode(c.forest, categoryID, tree.Patch{IsLoading: tree.Bool(true)})
	c.version++
	gen := c.generation
	c.mu.Unlock()

	children, err := c.gw.GetChildren(ctx, categoryID)

	c.mu.Lock()
	if gen != c.generation {
		// the forest this fetch belonged to is gone
		c.mu.Unlock()
		if err != nil {
			return fmt.Errorf("expand category %d: %w: %w", categoryID, ErrFetchFailed, err)
		}
		return nil
	}
	delete(c.inflight, categoryID)

	if err != nil {
		c.forest = tree.PatchNode(c.forest, categoryID, tree.Patch{IsLoading: tree.Bool(false)})
		c.lastFailure = &ExpandFailure{CategoryID: categoryID, Err: err}
		c.version++
		c.mu.Unlock()

		c.logger.Warn("failed to fetch category children", zap.Int64("category_id", categoryID), zap.Error(err))
		if c.notifier != nil {
			c.notifier.NotifyError(categoryID, err)
		}
		return fmt.Errorf("expand category %d: %w: %w", categoryID, ErrFetchFailed, err)
	}
	defer c.mu.Unlock()

	if c.lastFailure != nil && c.lastFailure.CategoryID == categoryID {
		c.lastFailure = nil
	}

	kids := make([]*model.CategoryNode, 0, len(children))
	for _, child := range children {
		if child == nil {
			continue
		}
		k := tree.Fresh(child)
		if k.ParentID == nil {
			pid := categoryID
			k.ParentID = &pid
		}
		kids = append(kids, k)
	}

	patch := tree.Patch{
		Children:   tree.Children(kids),
		IsExpanded: tree.Bool(true),
		IsLoading:  tree.Bool(false),
	}
	if len(kids) == 0 {
		// nothing to fetch next time
		patch.HasChildren = tree.Bool(false)
	}
	c.forest = tree.PatchNode(c.forest, categoryID, patch)
	c.version++
	return nil
}

// Collapse hides a node's children. They stay cached for the next Expand.
func (c *Controller) Collapse(ctx context.Context, categoryID int64) error {
	c.mu.Lock()
	n := tree.FindNode(c.forest, categoryID)
	if n == nil {
		c.mu.Unlock()
		return fmt.Errorf("collapse category %d: %w", categoryID, ErrNodeNotFound)
	}
	if !n.IsExpanded {
		c.mu.Unlock()
		return nil
	}
	c.forest = tree.PatchNode(c.forest, categoryID, tree.Patch{IsExpanded: tree.Bool(false)})
	c.version++
	c.mu.Unlock()

	c.persist(ctx)
	return nil
}

// Select makes categoryID the selected node and loads its detail when the
// selection changed. Selection does not expand anything.
func (c *Controller) Select(ctx context.Context, categoryID int64) {
	c.mu.Lock()
	changed := !c.hasSelected || c.selected != categoryID
	if !changed {
		c.mu.Unlock()
		return
	}
	c.selected = categoryID
	c.hasSelected = true
	c.version++
	// tagged under c.mu so the latest selection always owns the latest tag
	tag := c.detail.begin(categoryID)
	c.mu.Unlock()

	c.detail.fetch(ctx, categoryID, tag)
}

func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasSelected {
		c.version++
	}
	c.selected = 0
	c.hasSelected = false
	c.detail.Reset()
}

// RefreshDetail reloads the detail of the selected node.
func (c *Controller) RefreshDetail(ctx context.Context) {
	c.detail.Refresh(ctx)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	s := Snapshot{
		Forest:       c.forest,
		SelectedID:   c.selected,
		HasSelection: c.hasSelected,
		Version:      c.version,
		LastFailure:  c.lastFailure,
		Detail:       c.detail.State(),
	}
	c.mu.Unlock()
	return s
}

func (c *Controller) Forest() tree.Forest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forest
}

func (c *Controller) SelectedID() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.hasSelected
}

// Filter returns the filter of the last successful Reload.
func (c *Controller) Filter() *dto.CategoryFilters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

func (c *Controller) persist(ctx context.Context) {
	if c.store == nil {
		return
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	ids := tree.ExpandedIDs(c.forest)
	c.mu.Unlock()

	if err := c.store.Save(ctx, ids); err != nil {
		c.logger.Warn("failed to save explorer expansion state", zap.Error(err))
	}
}

// restore reopens the persisted expanded nodes one tree level at a time,
// since a child only becomes reachable once its parent has been fetched.
func (c *Controller) restore(ctx context.Context) {
	ids, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("failed to load explorer expansion state", zap.Error(err))
		return
	}

	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	for round := 0; round < tree.MaxDepth && len(want) > 0; round++ {
		var batch []int64
		tree.Walk(c.Forest(), func(n *model.CategoryNode, _ int) bool {
			if _, ok := want[n.ID]; ok && !n.IsExpanded && n.HasChildren {
				batch = append(batch, n.ID)
				delete(want, n.ID)
			}
			return true
		})
		if len(batch) == 0 {
			break
		}

		var g errgroup.Group
		g.SetLimit(restoreConcurrency)
		for _, id := range batch {
			g.Go(func() error {
				if err := c.expand(ctx, id); err != nil {
					c.logger.Warn("failed to restore expanded category", zap.Int64("category_id", id), zap.Error(err))
				}
				return nil
			})
		}
		_ = g.Wait()
	}
}
