package get_available_slots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/storeservice"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/memstore"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

var (
	now    = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	friday = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type fakeWindows struct {
	windows []*domain.TimeWindow
	err     error
	asked   []domain.Weekday
}

func (f *fakeWindows) List(_ context.Context, _ int64, weekday *domain.Weekday) ([]*domain.TimeWindow, error) {
	f.asked = append(f.asked, *weekday)
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.TimeWindow
	for _, w := range f.windows {
		if w.DayOfWeek == *weekday {
			out = append(out, w)
		}
	}
	return out, nil
}

type fakeStores struct {
	inactive bool
}

func (f fakeStores) GetStore(_ context.Context, id int64) (*storeservice.Store, error) {
	if id != 1 {
		return nil, storeservice.ErrStoreNotFound
	}
	return &storeservice.Store{ID: 1, IsActive: !f.inactive}, nil
}

func window(id int64, day domain.Weekday, start string, end *string, maxAggregate, maxParty int, active bool) *domain.TimeWindow {
	w := &domain.TimeWindow{
		ID:           id,
		StoreID:      1,
		DayOfWeek:    day,
		StartTime:    types.MustTimeString(start),
		MaxAggregate: maxAggregate,
		MaxParty:     maxParty,
		IsActive:     active,
	}
	if end != nil {
		e := types.MustTimeString(*end)
		w.EndTime = &e
	}
	return w
}

func newUseCase(windows *fakeWindows, db *memstore.DB, stores fakeStores, cfg Config) *UseCase {
	return NewUseCase(db.Reservations(), windows, stores, cfg, nopLogger{}).WithTimeProvider(fixedTime{now})
}

func TestUseCase_Execute(t *testing.T) {
	db := memstore.New()
	windows := &fakeWindows{windows: []*domain.TimeWindow{
		window(3, domain.Friday, "20:00", nil, 10, 4, true),
		window(1, domain.Friday, "18:00", ptr.Ptr("20:00"), 20, 8, true),
		window(2, domain.Friday, "12:00", ptr.Ptr("14:00"), 30, 10, false),
		window(4, domain.Saturday, "18:00", ptr.Ptr("20:00"), 20, 8, true),
	}}

	put := func(tw string, adults, children int, status domain.ReservationStatus) {
		db.Put(&domain.Reservation{StoreID: 1, ReservationDate: friday, TimeWindow: tw, Adults: adults, Children: children, Status: status})
	}
	put("18:00-20:00", 6, 0, domain.StatusPending)
	put("18:00-20:00", 6, 2, domain.StatusConfirmed)
	put("18:00-20:00", 8, 0, domain.StatusCancelled)
	put("20:00", 4, 0, domain.StatusConfirmed)
	put("20:00", 4, 2, domain.StatusNoShow)
	put("20:00", 6, 0, domain.StatusCompleted)

	uc := newUseCase(windows, db, fakeStores{}, Config{})
	resp, err := uc.Execute(context.Background(), &Request{StoreID: 1, Date: friday.Add(15 * time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, friday, resp.Date)
	assert.Equal(t, domain.Friday, resp.Weekday)
	assert.Equal(t, []domain.Weekday{domain.Friday}, windows.asked)

	// неактивное окно и окно субботы не выводятся
	require.Len(t, resp.Slots, 2)

	evening := resp.Slots[0]
	assert.Equal(t, int64(1), evening.WindowID)
	assert.Equal(t, "18:00-20:00", evening.TimeWindow)
	assert.Equal(t, 14, evening.CurrentBookings)
	assert.Equal(t, 6, evening.Available)
	assert.False(t, evening.IsFull)

	late := resp.Slots[1]
	assert.Equal(t, "20:00", late.TimeWindow)
	assert.Nil(t, late.EndTime)
	assert.Equal(t, 4, late.CurrentBookings)
	assert.Equal(t, 6, late.Available)
}

func TestUseCase_Execute_FullWindow(t *testing.T) {
	db := memstore.New()
	windows := &fakeWindows{windows: []*domain.TimeWindow{window(1, domain.Friday, "18:00", ptr.Ptr("20:00"), 10, 8, true)}}
	db.Put(&domain.Reservation{StoreID: 1, ReservationDate: friday, TimeWindow: "18:00-20:00", Adults: 8, Status: domain.StatusPending})
	db.Put(&domain.Reservation{StoreID: 1, ReservationDate: friday, TimeWindow: "18:00-20:00", Adults: 4, Status: domain.StatusPending})

	resp, err := newUseCase(windows, db, fakeStores{}, Config{}).Execute(context.Background(), &Request{StoreID: 1, Date: friday})
	require.NoError(t, err)
	require.Len(t, resp.Slots, 1)
	assert.Equal(t, 12, resp.Slots[0].CurrentBookings)
	assert.Zero(t, resp.Slots[0].Available)
	assert.True(t, resp.Slots[0].IsFull)
}

func TestUseCase_Execute_EmptyResults(t *testing.T) {
	db := memstore.New()
	windows := &fakeWindows{windows: []*domain.TimeWindow{window(1, domain.Friday, "18:00", nil, 10, 8, true)}}

	resp, err := newUseCase(windows, db, fakeStores{inactive: true}, Config{}).Execute(context.Background(), &Request{StoreID: 1, Date: friday})
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
	assert.Empty(t, windows.asked)

	resp, err = newUseCase(windows, db, fakeStores{}, Config{}).Execute(context.Background(), &Request{StoreID: 1, Date: friday.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.NotNil(t, resp.Slots)
	assert.Empty(t, resp.Slots)
}

func TestUseCase_Execute_Errors(t *testing.T) {
	db := memstore.New()

	tests := []struct {
		name    string
		windows *fakeWindows
		cfg     Config
		req     *Request
		wantErr error
	}{
		{name: "invalid store", windows: &fakeWindows{}, req: &Request{StoreID: 0, Date: friday}, wantErr: ErrInvalidInput},
		{name: "missing date", windows: &fakeWindows{}, req: &Request{StoreID: 1}, wantErr: ErrInvalidInput},
		{name: "past date", windows: &fakeWindows{}, req: &Request{StoreID: 1, Date: now.AddDate(0, 0, -1)}, wantErr: ErrInvalidDate},
		{name: "beyond horizon", windows: &fakeWindows{}, cfg: Config{MaxAdvanceDays: 3}, req: &Request{StoreID: 1, Date: now.AddDate(0, 0, 4)}, wantErr: ErrDateTooFarInFuture},
		{name: "unknown store", windows: &fakeWindows{}, req: &Request{StoreID: 2, Date: friday}, wantErr: ErrStoreNotFound},
		{name: "catalog failure", windows: &fakeWindows{err: errors.New("db down")}, req: &Request{StoreID: 1, Date: friday}, wantErr: ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newUseCase(tt.windows, db, fakeStores{}, tt.cfg).Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
