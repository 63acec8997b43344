package explorer

import (
	"context"
	"sync"
	"testing"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailPane_Load(t *testing.T) {
	gw := newFakeGateway()
	gw.details[7] = &model.CategoryDetail{ID: 7, Title: "Shoes", IsFeaturedCategory: true}
	d := NewDetailPane(gw, nil, logger.NewNop())

	assert.Nil(t, d.State().Data)

	d.Load(context.Background(), 7)

	st := d.State()
	assert.False(t, st.IsLoading)
	assert.Equal(t, int64(7), st.CategoryID)
	require.NotNil(t, st.Data)
	assert.Equal(t, "Shoes", st.Data.Title)
	assert.True(t, st.Data.IsFeaturedCategory)
}

func TestDetailPane_LoadingFlag(t *testing.T) {
	gw := newFakeGateway()
	gate := make(chan struct{})
	gw.detailGate[7] = gate
	gw.details[7] = &model.CategoryDetail{ID: 7}
	d := NewDetailPane(gw, nil, logger.NewNop())

	done := make(chan struct{})
	go func() {
		d.Load(context.Background(), 7)
		close(done)
	}()
	<-gw.started

	assert.True(t, d.State().IsLoading)

	close(gate)
	<-done
	assert.False(t, d.State().IsLoading)
}

func TestDetailPane_FailureFallsBackToEmpty(t *testing.T) {
	gw := newFakeGateway()
	gw.detErr[7] = errBackend
	n := &recordingNotifier{}
	d := NewDetailPane(gw, n, logger.NewNop())

	d.Load(context.Background(), 7)

	st := d.State()
	assert.False(t, st.IsLoading)
	require.NotNil(t, st.Data)
	assert.Equal(t, model.CategoryDetail{}, *st.Data)
	assert.ErrorIs(t, n.errs[7], errBackend)
}

func TestDetailPane_StaleResponseDiscarded(t *testing.T) {
	gw := newFakeGateway()
	gw.details[1] = &model.CategoryDetail{ID: 1, Title: "A"}
	gw.details[2] = &model.CategoryDetail{ID: 2, Title: "B"}
	gateA := make(chan struct{})
	gw.detailGate[1] = gateA
	c := NewController(gw, logger.NewNop())
	ctx := context.Background()

	doneA := make(chan struct{})
	go func() {
		c.Select(ctx, 1)
		close(doneA)
	}()
	<-gw.started

	c.Select(ctx, 2)
	assert.Equal(t, "B", c.Snapshot().Detail.Data.Title)

	// A resolves after B
	close(gateA)
	<-doneA

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.SelectedID)
	assert.Equal(t, int64(2), snap.Detail.CategoryID)
	require.NotNil(t, snap.Detail.Data)
	assert.Equal(t, "B", snap.Detail.Data.Title)
	assert.False(t, snap.Detail.IsLoading)
}

func TestDetailPane_StaleFailureNotNotified(t *testing.T) {
	gw := newFakeGateway()
	gw.detErr[1] = errBackend
	gw.details[2] = &model.CategoryDetail{ID: 2, Title: "B"}
	gateA := make(chan struct{})
	gw.detailGate[1] = gateA
	n := &recordingNotifier{}
	d := NewDetailPane(gw, n, logger.NewNop())
	ctx := context.Background()

	doneA := make(chan struct{})
	go func() {
		d.Load(ctx, 1)
		close(doneA)
	}()
	<-gw.started

	d.Load(ctx, 2)
	close(gateA)
	<-doneA

	assert.Equal(t, "B", d.State().Data.Title)
	assert.Empty(t, n.errs)
}

func TestDetailPane_RefreshRefetchesCurrent(t *testing.T) {
	gw := newFakeGateway()
	gw.details[3] = &model.CategoryDetail{ID: 3, Title: "old"}
	d := NewDetailPane(gw, nil, logger.NewNop())
	ctx := context.Background()

	d.Refresh(ctx)
	assert.Equal(t, 0, gw.detailCalls[3], "nothing to refresh yet")

	d.Load(ctx, 3)
	gw.mu.Lock()
	gw.details[3] = &model.CategoryDetail{ID: 3, Title: "new"}
	gw.mu.Unlock()

	d.Refresh(ctx)

	assert.Equal(t, 2, gw.detailCalls[3])
	assert.Equal(t, "new", d.State().Data.Title)
}

func TestDetailPane_SwitchingAlwaysRefetches(t *testing.T) {
	gw := newFakeGateway()
	gw.details[1] = &model.CategoryDetail{ID: 1}
	gw.details[2] = &model.CategoryDetail{ID: 2}
	d := NewDetailPane(gw, nil, logger.NewNop())
	ctx := context.Background()

	d.Load(ctx, 1)
	d.Load(ctx, 2)
	d.Load(ctx, 1)

	assert.Equal(t, 2, gw.detailCalls[1])
	assert.Equal(t, 1, gw.detailCalls[2])
}

func TestDetailPane_ClearWhileLoadingStaysIdle(t *testing.T) {
	gw := newFakeGateway()
	gw.details[1] = &model.CategoryDetail{ID: 1, Title: "A"}
	gate := make(chan struct{})
	gw.detailGate[1] = gate
	c := NewController(gw, logger.NewNop())
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		c.Select(ctx, 1)
		close(done)
	}()
	<-gw.started

	c.ClearSelection()
	close(gate)
	<-done

	snap := c.Snapshot()
	assert.False(t, snap.HasSelection)
	assert.Equal(t, DetailState{}, snap.Detail)
}

func TestDetailPane_FollowsSelectionUnderConcurrency(t *testing.T) {
	gw := newFakeGateway()
	for id := int64(1); id <= 4; id++ {
		gw.details[id] = &model.CategoryDetail{ID: id}
	}
	c := NewController(gw, logger.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if (i+w)%7 == 0 {
					c.ClearSelection()
					continue
				}
				c.Select(ctx, int64((i+w)%4+1))

				snap := c.Snapshot()
				if snap.HasSelection {
					assert.Equal(t, snap.SelectedID, snap.Detail.CategoryID)
				}
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.HasSelection {
		assert.Equal(t, snap.SelectedID, snap.Detail.CategoryID)
		require.NotNil(t, snap.Detail.Data)
		assert.Equal(t, snap.SelectedID, snap.Detail.Data.ID)
		assert.False(t, snap.Detail.IsLoading)
	} else {
		assert.Equal(t, DetailState{}, snap.Detail)
	}
}
