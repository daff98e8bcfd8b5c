package changelogrelay

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/memstore"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, entries []*domain.ChangeLogEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

type memoryOffsets struct {
	mu      sync.Mutex
	offsets map[string]int64
	saveErr error
}

func (m *memoryOffsets) Get(_ context.Context, consumer string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offsets[consumer], nil
}

func (m *memoryOffsets) Save(_ context.Context, consumer string, lastID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.offsets[consumer] = max(m.offsets[consumer], lastID)
	return nil
}

type counters struct {
	published map[string]int
	errors    map[string]int
}

func (c *counters) IncRelayPublished(changeType string) { c.published[changeType]++ }
func (c *counters) IncRelayError(stage string)          { c.errors[stage]++ }

func seed(t *testing.T, db *memstore.DB, n int) {
	t.Helper()
	res := &domain.Reservation{ID: 1, Reference: "R20261016-AAAAAA", StoreID: 1}
	for i := 0; i < n; i++ {
		changeType := domain.ChangeUpdated
		if i == 0 {
			changeType = domain.ChangeCreated
		}
		entry := domain.NewChangeLogEntry(res, changeType, domain.GuestActor(), nil, res.Snapshot(), nil)
		require.NoError(t, db.ChangeLog().Append(context.Background(), entry))
	}
}

func ids(entries []*domain.ChangeLogEntry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func idsEqual(want ...int64) interface{} {
	return mock.MatchedBy(func(entries []*domain.ChangeLogEntry) bool {
		return assert.ObjectsAreEqual(want, ids(entries))
	})
}

func newRelay(db *memstore.DB, offsets *memoryOffsets, pub Publisher, rec Recorder, cfg Config) *Relay {
	return New(db.ChangeLog(), offsets, pub, rec, cfg, nopLogger{}).
		WithTimeProvider(fixedTime{time.Now().Add(time.Hour)})
}

func TestRelay_RunOnce_AdvancesAfterPublish(t *testing.T) {
	db := memstore.New()
	seed(t, db, 5)

	offsets := &memoryOffsets{offsets: map[string]int64{}}
	rec := &counters{published: map[string]int{}, errors: map[string]int{}}
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, idsEqual(1, 2, 3)).Return(nil).Once()
	pub.On("Publish", mock.Anything, idsEqual(4, 5)).Return(nil).Once()

	relay := newRelay(db, offsets, pub, rec, Config{Consumer: "audit", BatchSize: 3})

	sent, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Equal(t, int64(3), offsets.offsets["audit"])

	sent, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, int64(5), offsets.offsets["audit"])

	// журнал прочитан до конца
	sent, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	pub.AssertExpectations(t)
	assert.Equal(t, 1, rec.published["created"])
	assert.Equal(t, 4, rec.published["updated"])

	// сам журнал не меняется
	assert.Len(t, db.Entries(), 5)
}

func TestRelay_RunOnce_PublishFailureKeepsOffset(t *testing.T) {
	db := memstore.New()
	seed(t, db, 2)

	offsets := &memoryOffsets{offsets: map[string]int64{}}
	rec := &counters{published: map[string]int{}, errors: map[string]int{}}
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, idsEqual(1, 2)).Return(errors.New("broker down")).Once()
	pub.On("Publish", mock.Anything, idsEqual(1, 2)).Return(nil).Once()

	relay := newRelay(db, offsets, pub, rec, Config{Consumer: "audit"})

	_, err := relay.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrPublish)
	assert.Zero(t, offsets.offsets["audit"])
	assert.Equal(t, 1, rec.errors["publish"])
	assert.Empty(t, rec.published)

	// повтор отправляет ту же пачку
	sent, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, int64(2), offsets.offsets["audit"])
	pub.AssertExpectations(t)
}

func TestRelay_RunOnce_CommitFailure(t *testing.T) {
	db := memstore.New()
	seed(t, db, 1)

	offsets := &memoryOffsets{offsets: map[string]int64{}, saveErr: errors.New("conn reset")}
	rec := &counters{published: map[string]int{}, errors: map[string]int{}}
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := newRelay(db, offsets, pub, rec, Config{}).RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrCommit)
	assert.Equal(t, 1, rec.errors["commit"])
}

// sliceSource журнал с заданными id: пропуски в нумерации изображают незакоммиченные транзакции
type sliceSource struct {
	mu      sync.Mutex
	entries []*domain.ChangeLogEntry
}

func (s *sliceSource) add(ids ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.entries = append(s.entries, &domain.ChangeLogEntry{ID: id, ReservationID: 1, ChangeType: domain.ChangeUpdated})
	}
	sort.Slice(s.entries, func(i, j int) bool { return s.entries[i].ID < s.entries[j].ID })
}

func (s *sliceSource) ListAfter(_ context.Context, afterID int64, limit uint64) ([]*domain.ChangeLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ChangeLogEntry
	for _, e := range s.entries {
		if e.ID > afterID && uint64(len(out)) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

type movingTime struct{ t time.Time }

func (m *movingTime) Now() time.Time { return m.t }

func TestRelay_RunOnce_StopsAtGapUntilLateCommit(t *testing.T) {
	source := &sliceSource{}
	source.add(1, 2, 4, 5)

	offsets := &memoryOffsets{offsets: map[string]int64{}}
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, idsEqual(1, 2)).Return(nil).Once()
	pub.On("Publish", mock.Anything, idsEqual(3, 4, 5)).Return(nil).Once()

	clock := &movingTime{t: time.Now()}
	relay := New(source, offsets, pub, nil, Config{Consumer: "audit", GapTimeout: time.Minute}, nopLogger{}).
		WithTimeProvider(clock)

	sent, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, int64(2), offsets.offsets["audit"])

	// id 3 ещё не закоммичен: позиция не перескакивает через него
	clock.t = clock.t.Add(10 * time.Second)
	sent, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	// долгая транзакция закоммитилась позже записей 4 и 5
	source.add(3)
	sent, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Equal(t, int64(5), offsets.offsets["audit"])
	pub.AssertExpectations(t)
}

func TestRelay_RunOnce_SkipsRolledBackIDsAfterTimeout(t *testing.T) {
	source := &sliceSource{}
	source.add(1, 3, 4, 7)

	offsets := &memoryOffsets{offsets: map[string]int64{}}
	rec := &counters{published: map[string]int{}, errors: map[string]int{}}
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, idsEqual(1)).Return(nil).Once()
	pub.On("Publish", mock.Anything, idsEqual(3, 4)).Return(nil).Once()
	pub.On("Publish", mock.Anything, idsEqual(7)).Return(nil).Once()

	clock := &movingTime{t: time.Now()}
	relay := New(source, offsets, pub, rec, Config{Consumer: "audit", GapTimeout: time.Minute}, nopLogger{}).
		WithTimeProvider(clock)

	sent, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	clock.t = clock.t.Add(30 * time.Second)
	sent, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	// id 2 так и не появился: после таймаута считается откатом, следующий пропуск ждём заново
	clock.t = clock.t.Add(31 * time.Second)
	sent, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, int64(4), offsets.offsets["audit"])
	assert.Equal(t, 1, rec.errors["gap"])

	clock.t = clock.t.Add(30 * time.Second)
	sent, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	clock.t = clock.t.Add(2 * time.Minute)
	sent, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, int64(7), offsets.offsets["audit"])
	assert.Equal(t, 2, rec.errors["gap"])
	pub.AssertExpectations(t)
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	db := memstore.New()
	seed(t, db, 1)

	offsets := &memoryOffsets{offsets: map[string]int64{}}
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	relay := newRelay(db, offsets, pub, nil, Config{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		id, _ := offsets.Get(context.Background(), "audit-sink")
		return id == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
