package capacity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

type mockLoadRepository struct {
	mock.Mock
}

func (m *mockLoadRepository) SumActiveHeadcount(ctx context.Context, key domain.SlotKey, excludeID int64) (int, error) {
	args := m.Called(ctx, key, excludeID)
	return args.Int(0), args.Error(1)
}

type countingRecorder struct {
	bounds []string
}

func (r *countingRecorder) IncCapacityRejection(bound string) {
	r.bounds = append(r.bounds, bound)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func fridayWindow() *domain.TimeWindow {
	return &domain.TimeWindow{ID: 1, StoreID: 1, DayOfWeek: domain.Friday, MaxAggregate: 20, MaxParty: 8, IsActive: true}
}

func TestCheckFits(t *testing.T) {
	w := fridayWindow()

	tests := []struct {
		name      string
		load      int
		requested int
		bound     Bound
		remaining int
	}{
		{name: "empty window", load: 0, requested: 6},
		{name: "exactly full", load: 12, requested: 8},
		{name: "party too large", load: 0, requested: 9, bound: BoundParty, remaining: 20},
		{name: "aggregate exceeded", load: 14, requested: 7, bound: BoundAggregate, remaining: 6},
		{name: "over booked window reports zero", load: 22, requested: 1, bound: BoundAggregate, remaining: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFits(w, tt.load, tt.requested)
			if tt.bound == "" {
				assert.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrCapacityExceeded)
			var exceeded *ExceededError
			require.True(t, errors.As(err, &exceeded))
			assert.Equal(t, tt.bound, exceeded.Bound)
			assert.Equal(t, tt.remaining, exceeded.Remaining)
		})
	}
}

func TestService_Reserve_ExcludesSelf(t *testing.T) {
	repo := &mockLoadRepository{}
	rec := &countingRecorder{}
	svc := NewService(repo, rec, nopLogger{})

	w := &domain.TimeWindow{MaxAggregate: 10, MaxParty: 8}
	key := domain.NewSlotKey(1, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), "18:00-20:00")

	// Единственное бронирование на 4 человек увеличивается до 6: без него загрузка 0
	repo.On("SumActiveHeadcount", mock.Anything, key, int64(42)).Return(0, nil)

	load, err := svc.Reserve(context.Background(), w, key, 6, 42)
	require.NoError(t, err)
	assert.Equal(t, 0, load)
	assert.Empty(t, rec.bounds)
	repo.AssertExpectations(t)
}

func TestService_Reserve_RecordsRejection(t *testing.T) {
	repo := &mockLoadRepository{}
	rec := &countingRecorder{}
	svc := NewService(repo, rec, nopLogger{})

	key := domain.NewSlotKey(1, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), "18:00-20:00")
	repo.On("SumActiveHeadcount", mock.Anything, key, int64(0)).Return(14, nil)

	load, err := svc.Reserve(context.Background(), fridayWindow(), key, 7, 0)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 14, load)
	assert.Equal(t, []string{"aggregate"}, rec.bounds)
}

func TestService_CurrentLoad_RepositoryError(t *testing.T) {
	repo := &mockLoadRepository{}
	svc := NewService(repo, nil, nopLogger{})
	key := domain.NewSlotKey(1, time.Now(), "18:00")
	repo.On("SumActiveHeadcount", mock.Anything, key, int64(0)).Return(0, errors.New("connection reset"))

	_, err := svc.CurrentLoad(context.Background(), key, 0)
	assert.ErrorIs(t, err, ErrInternal)
}
