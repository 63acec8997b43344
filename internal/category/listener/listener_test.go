package listener

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/category/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// chanReader serves queued messages, then blocks until ctx ends.
type chanReader struct {
	msgs chan kafka.Message
	errs chan error
}

func newChanReader() *chanReader {
	return &chanReader{msgs: make(chan kafka.Message, 16), errs: make(chan error, 16)}
}

func (r *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case err := <-r.errs:
		return kafka.Message{}, err
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) push(t *testing.T, ev CategoryEvent) {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	r.msgs <- kafka.Message{Value: b}
}

type recorder struct {
	mu        sync.Mutex
	calls     []string
	indexErr  error
	reloadErr error
	reloaded  chan string
}

func newRecorder() *recorder {
	return &recorder{reloaded: make(chan string, 16)}
}

func (r *recorder) record(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	return nil, 0, nil
}

func (r *recorder) GetChildren(ctx context.Context, merchantID string, id int64) ([]model.Category, error) {
	return nil, nil
}

func (r *recorder) GetCategory(ctx context.Context, merchantID string, id int64) (*model.Category, error) {
	return nil, nil
}

func (r *recorder) InvalidateCache(ctx context.Context, merchantID string) {
	r.record("invalidate:" + merchantID)
}

func (r *recorder) IndexCategory(ctx context.Context, merchantID string, id int64) error {
	r.record("index")
	return r.indexErr
}

func (r *recorder) RemoveFromIndex(ctx context.Context, id int64) error {
	r.record("remove")
	return nil
}

func (r *recorder) ReloadMerchant(ctx context.Context, merchantID string) error {
	r.record("reload:" + merchantID)
	r.reloaded <- merchantID
	return r.reloadErr
}

func run(t *testing.T, l *CategoryListener) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Start(ctx)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("listener did not stop")
		}
	}
}

func waitReload(t *testing.T, r *recorder) string {
	t.Helper()
	select {
	case m := <-r.reloaded:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no reload")
		return ""
	}
}

func TestListener_UpdatedEvent(t *testing.T) {
	reader := newChanReader()
	rec := newRecorder()
	l := NewCategoryListener(reader, rec, rec, logger.NewNop())
	stop := run(t, l)
	defer stop()

	reader.push(t, CategoryEvent{EventID: "e1", EventType: EventCategoryUpdated, Payload: CategoryPayload{ID: 7, MerchantID: "m1"}})

	assert.Equal(t, "m1", waitReload(t, rec))
	assert.Equal(t, []string{"invalidate:m1", "index", "reload:m1"}, rec.Calls())
}

func TestListener_DeletedEventRemovesFromIndex(t *testing.T) {
	reader := newChanReader()
	rec := newRecorder()
	l := NewCategoryListener(reader, rec, rec, logger.NewNop())
	stop := run(t, l)
	defer stop()

	reader.push(t, CategoryEvent{EventType: EventCategoryDeleted, Payload: CategoryPayload{ID: 7, MerchantID: "m1"}})

	waitReload(t, rec)
	assert.Equal(t, []string{"invalidate:m1", "remove", "reload:m1"}, rec.Calls())
}

func TestListener_SkipsUnknownAndMalformed(t *testing.T) {
	reader := newChanReader()
	rec := newRecorder()
	l := NewCategoryListener(reader, rec, rec, logger.NewNop())
	stop := run(t, l)
	defer stop()

	reader.msgs <- kafka.Message{Value: []byte("{not json")}
	reader.push(t, CategoryEvent{EventType: "OrderCreated", Payload: CategoryPayload{ID: 1, MerchantID: "m1"}})
	reader.push(t, CategoryEvent{EventType: EventCategoryCreated, Payload: CategoryPayload{ID: 1}})
	reader.push(t, CategoryEvent{EventType: EventCategoryCreated, Payload: CategoryPayload{ID: 2, MerchantID: "m2"}})

	assert.Equal(t, "m2", waitReload(t, rec))
	assert.Equal(t, []string{"invalidate:m2", "index", "reload:m2"}, rec.Calls())
}

func TestListener_IndexFailureStillReloads(t *testing.T) {
	reader := newChanReader()
	rec := newRecorder()
	rec.indexErr = errors.New("es down")
	l := NewCategoryListener(reader, rec, rec, logger.NewNop())
	stop := run(t, l)
	defer stop()

	reader.push(t, CategoryEvent{EventType: EventCategoryCreated, Payload: CategoryPayload{ID: 3, MerchantID: "m1"}})
	assert.Equal(t, "m1", waitReload(t, rec))
}

func TestListener_ReadErrorBacksOff(t *testing.T) {
	reader := newChanReader()
	rec := newRecorder()
	l := NewCategoryListener(reader, rec, rec, logger.NewNop())
	l.backoff = 10 * time.Millisecond
	stop := run(t, l)
	defer stop()

	reader.errs <- errors.New("broker unavailable")
	reader.push(t, CategoryEvent{EventType: EventCategoryUpdated, Payload: CategoryPayload{ID: 3, MerchantID: "m1"}})
	assert.Equal(t, "m1", waitReload(t, rec))
}

func TestListener_StopsDuringBackoff(t *testing.T) {
	reader := newChanReader()
	rec := newRecorder()
	l := NewCategoryListener(reader, rec, rec, logger.NewNop())
	l.backoff = time.Hour
	stop := run(t, l)

	reader.errs <- errors.New("broker unavailable")
	time.Sleep(20 * time.Millisecond)
	stop()
}
