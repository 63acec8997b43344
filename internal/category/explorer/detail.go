package explorer

import (
	"context"
	"sync"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DetailState is what the detail form renders. Data is nil only before the
// first load; a failed load leaves an empty record.
type DetailState struct {
	CategoryID int64
	Data       *model.CategoryDetail
	IsLoading  bool
}

// DetailPane loads the full record of the selected category. Only the
// response of the most recent request is applied.
type DetailPane struct {
	gw       Gateway
	notifier Notifier
	logger   logger.ZapLogger

	mu      sync.Mutex
	seq     uint64
	current int64
	loaded  bool // current is meaningful
	state   DetailState
}

func NewDetailPane(gw Gateway, notifier Notifier, log logger.ZapLogger) *DetailPane {
	return &DetailPane{
		gw:       gw,
		notifier: notifier,
		logger:   log,
	}
}

func (d *DetailPane) Load(ctx context.Context, categoryID int64) {
	d.fetch(ctx, categoryID, d.begin(categoryID))
}

// begin makes categoryID the pane's record and returns the tag its response
// must carry to be applied.
func (d *DetailPane) begin(categoryID int64) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.beginLocked(categoryID)
}

func (d *DetailPane) beginLocked(categoryID int64) uint64 {
	d.seq++
	prev := d.state
	d.current = categoryID
	d.loaded = true
	d.state = DetailState{CategoryID: categoryID, IsLoading: true}
	if prev.CategoryID == categoryID {
		// refreshing keeps the form populated
		d.state.Data = prev.Data
	}
	return d.seq
}

func (d *DetailPane) fetch(ctx context.Context, categoryID int64, tag uint64) {
	reqID := uuid.NewString()
	d.logger.Debug("loading category detail",
		zap.Int64("category_id", categoryID),
		zap.String("request_id", reqID),
	)

	detail, err := d.gw.GetCategory(ctx, categoryID)

	d.mu.Lock()
	if tag != d.seq {
		d.mu.Unlock()
		d.logger.Debug("discarding stale category detail",
			zap.Int64("category_id", categoryID),
			zap.String("request_id", reqID),
		)
		return
	}
	if err != nil || detail == nil {
		d.state = DetailState{CategoryID: categoryID, Data: &model.CategoryDetail{}}
	} else {
		d.state = DetailState{CategoryID: categoryID, Data: detail}
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.Error("failed to load category detail",
			zap.Int64("category_id", categoryID),
			zap.String("request_id", reqID),
			zap.Error(err),
		)
		if d.notifier != nil {
			d.notifier.NotifyError(categoryID, err)
		}
	}
}

// Refresh reloads the current category. It does nothing before the first Load.
func (d *DetailPane) Refresh(ctx context.Context) {
	d.mu.Lock()
	if !d.loaded {
		d.mu.Unlock()
		return
	}
	id := d.current
	tag := d.beginLocked(id)
	d.mu.Unlock()

	d.fetch(ctx, id, tag)
}

// Reset drops the current record. Responses still in flight are discarded.
func (d *DetailPane) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	d.current = 0
	d.loaded = false
	d.state = DetailState{}
}

func (d *DetailPane) State() DetailState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}
