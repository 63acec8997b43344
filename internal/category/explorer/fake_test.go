package explorer

import (
	"context"
	"errors"
	"sync"

	"github.com/fekuna/omnipos-backoffice/internal/category/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
)

var errBackend = errors.New("backend unavailable")

type fakeGateway struct {
	mu sync.Mutex

	roots    []*model.CategoryNode
	listErr  error
	children map[int64][]*model.CategoryNode
	childErr map[int64]error
	details  map[int64]*model.CategoryDetail
	detErr   map[int64]error

	// gates block a call for the given id until the channel is closed;
	// started receives the id once the call has begun
	childGate  map[int64]chan struct{}
	detailGate map[int64]chan struct{}
	started    chan int64

	listCalls   int
	childCalls  map[int64]int
	detailCalls map[int64]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		children:    map[int64][]*model.CategoryNode{},
		childErr:    map[int64]error{},
		details:     map[int64]*model.CategoryDetail{},
		detErr:      map[int64]error{},
		childGate:   map[int64]chan struct{}{},
		detailGate:  map[int64]chan struct{}{},
		started:     make(chan int64, 16),
		childCalls:  map[int64]int{},
		detailCalls: map[int64]int{},
	}
}

func (f *fakeGateway) ListCategories(ctx context.Context, filter *dto.CategoryFilters) ([]*model.CategoryNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.roots, f.listErr
}

func (f *fakeGateway) GetChildren(ctx context.Context, id int64) ([]*model.CategoryNode, error) {
	f.mu.Lock()
	f.childCalls[id]++
	gate := f.childGate[id]
	f.mu.Unlock()

	if gate != nil {
		f.started <- id
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.children[id], f.childErr[id]
}

func (f *fakeGateway) GetCategory(ctx context.Context, id int64) (*model.CategoryDetail, error) {
	f.mu.Lock()
	f.detailCalls[id]++
	gate := f.detailGate[id]
	f.mu.Unlock()

	if gate != nil {
		f.started <- id
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.details[id], f.detErr[id]
}

func (f *fakeGateway) childCallCount(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.childCalls[id]
}

type memoryStore struct {
	mu    sync.Mutex
	ids   []int64
	saves int
	err   error
}

func (m *memoryStore) Save(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.ids = append([]int64(nil), ids...)
	return m.err
}

func (m *memoryStore) Load(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.ids...), m.err
}

type recordingNotifier struct {
	mu   sync.Mutex
	errs map[int64]error
}

func (r *recordingNotifier) NotifyError(id int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.errs == nil {
		r.errs = map[int64]error{}
	}
	r.errs[id] = err
}

func parent(v int64) *int64 { return &v }
