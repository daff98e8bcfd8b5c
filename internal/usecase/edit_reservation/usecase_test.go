package edit_reservation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/storeservice"
	"github.com/m04kA/SMC-ReservationService/internal/service/access"
	"github.com/m04kA/SMC-ReservationService/internal/service/capacity"
	"github.com/m04kA/SMC-ReservationService/internal/service/guests"
	"github.com/m04kA/SMC-ReservationService/internal/service/timewindows"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/memstore"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

const (
	storeID    = int64(1)
	staffID    = int64(100)
	memberID   = int64(7)
	guestPhone = "0912345678"
)

var friday = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type staticWindows struct {
	windows []*domain.TimeWindow
}

func (s *staticWindows) Resolve(_ context.Context, store int64, date time.Time, tw string) (*domain.TimeWindow, error) {
	spec, err := domain.ParseWindowSpec(tw)
	if err != nil {
		return nil, timewindows.ErrInvalidInput
	}
	for _, w := range s.windows {
		if w.StoreID == store && w.IsActive && w.DayOfWeek == domain.WeekdayOf(date) && w.Matches(spec) {
			return w, nil
		}
	}
	return nil, timewindows.ErrWindowNotFound
}

type fakeStores struct{}

func (fakeStores) GetStore(_ context.Context, id int64) (*storeservice.Store, error) {
	if id != storeID {
		return nil, storeservice.ErrStoreNotFound
	}
	return &storeservice.Store{ID: storeID, IsActive: true, StaffIDs: []int64{staffID}}, nil
}

func window(id int64, start, end string, maxAggregate, maxParty int) *domain.TimeWindow {
	e := types.MustTimeString(end)
	return &domain.TimeWindow{
		ID:           id,
		StoreID:      storeID,
		DayOfWeek:    domain.Friday,
		StartTime:    types.MustTimeString(start),
		EndTime:      &e,
		MaxAggregate: maxAggregate,
		MaxParty:     maxParty,
		IsActive:     true,
	}
}

func newUseCase(t *testing.T) (*UseCase, *memstore.DB) {
	t.Helper()
	db := memstore.New()
	gs, err := guests.NewService(db.Reservations(), guests.Config{}, nopLogger{})
	require.NoError(t, err)

	windows := &staticWindows{windows: []*domain.TimeWindow{
		window(1, "18:00", "20:00", 20, 8),
		window(2, "20:00", "22:00", 10, 6),
	}}

	uc := NewUseCase(
		db.Reservations(),
		db.ChangeLog(),
		windows,
		capacity.NewService(db.Reservations(), nil, nopLogger{}),
		access.NewChecker(fakeStores{}, gs, nopLogger{}),
		db,
		nil,
		nopLogger{},
	)
	return uc, db
}

func putMember(db *memstore.DB, tw string, adults int) *domain.Reservation {
	return db.Put(&domain.Reservation{
		Reference:       "R20261016-MEMBER",
		StoreID:         storeID,
		MemberID:        ptr.Ptr(memberID),
		ContactName:     "Lin",
		ContactPhone:    "0911222333",
		ReservationDate: friday,
		TimeWindow:      tw,
		Adults:          adults,
		Status:          domain.StatusConfirmed,
	})
}

func putGuest(db *memstore.DB, reference, tw string, adults int) *domain.Reservation {
	return db.Put(&domain.Reservation{
		Reference:       reference,
		StoreID:         storeID,
		ContactName:     "Guest",
		ContactPhone:    guestPhone,
		PhoneToken:      ptr.Ptr(guests.DeriveToken(guestPhone)),
		ReservationDate: friday,
		TimeWindow:      tw,
		Adults:          adults,
		Status:          domain.StatusPending,
	})
}

func asMember() domain.Requester { return domain.Requester{MemberID: ptr.Ptr(memberID)} }

func TestUseCase_Execute_ChangeHeadcount(t *testing.T) {
	uc, db := newUseCase(t)
	own := putMember(db, "18:00-20:00", 6)
	putGuest(db, "R20261016-OTHER1", "18:00-20:00", 8)
	putGuest(db, "R20261016-OTHER2", "18:00-20:00", 4)

	// без своей брони в окне 12 гостей, 6 -> 8 даёт ровно 20
	resp, err := uc.Execute(context.Background(), &Request{
		ReservationID: own.ID,
		Requester:     asMember(),
		Adults:        ptr.Ptr(6),
		Children:      ptr.Ptr(2),
		Note:          ptr.Ptr("two kids joined"),
	})
	require.NoError(t, err)
	assert.Equal(t, 8, resp.Headcount)
	assert.Equal(t, "confirmed", resp.Status)

	assert.Equal(t, []string{"reservation-slot:1:2026-10-16:18:00-20:00"}, db.LockedKeys())

	entries := db.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ChangeUpdated, entries[0].ChangeType)
	assert.Equal(t, domain.ActorCustomer, entries[0].ActorKind)
	assert.Equal(t, "two kids joined", *entries[0].Note)
	assert.ElementsMatch(t, []string{"children"}, entries[0].OldValues.Diff(entries[0].NewValues))
}

func TestUseCase_Execute_CapacityExcludesSelf(t *testing.T) {
	uc, db := newUseCase(t)
	own := putMember(db, "18:00-20:00", 6)
	putGuest(db, "R20261016-OTHER1", "18:00-20:00", 8)
	putGuest(db, "R20261016-OTHER2", "18:00-20:00", 6)

	_, err := uc.Execute(context.Background(), &Request{ReservationID: own.ID, Requester: asMember(), Adults: ptr.Ptr(7)})
	require.ErrorIs(t, err, capacity.ErrCapacityExceeded)

	var exceeded *capacity.ExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, capacity.BoundAggregate, exceeded.Bound)
	assert.Equal(t, 14, exceeded.CurrentLoad)
	assert.Equal(t, 6, exceeded.Remaining)

	_, err = uc.Execute(context.Background(), &Request{ReservationID: own.ID, Requester: asMember(), Adults: ptr.Ptr(9)})
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, capacity.BoundParty, exceeded.Bound)

	// ничего не изменилось
	stored := db.All()[0]
	assert.Equal(t, 6, stored.Adults)
	assert.Empty(t, db.Entries())
}

func TestUseCase_Execute_MoveWindow(t *testing.T) {
	uc, db := newUseCase(t)
	own := putMember(db, "18:00-20:00", 4)
	putGuest(db, "R20261016-LATE01", "20:00-22:00", 6)

	resp, err := uc.Execute(context.Background(), &Request{ReservationID: own.ID, Requester: asMember(), TimeWindow: ptr.Ptr(" 20:00 - 22:00 ")})
	require.NoError(t, err)
	assert.Equal(t, "20:00-22:00", resp.TimeWindow)

	assert.Equal(t, []string{
		"reservation-slot:1:2026-10-16:18:00-20:00",
		"reservation-slot:1:2026-10-16:20:00-22:00",
	}, db.LockedKeys())

	// в позднем окне осталось 0 мест
	_, err = uc.Execute(context.Background(), &Request{ReservationID: own.ID, Requester: asMember(), Adults: ptr.Ptr(5)})
	assert.ErrorIs(t, err, capacity.ErrCapacityExceeded)

	_, err = uc.Execute(context.Background(), &Request{ReservationID: own.ID, Requester: asMember(), TimeWindow: ptr.Ptr("12:00")})
	assert.ErrorIs(t, err, ErrWindowNotFound)

	assert.Len(t, db.Entries(), 1)
}

func TestUseCase_Execute_SpecialRequestOnly(t *testing.T) {
	uc, db := newUseCase(t)
	own := putGuest(db, "R20261016-GUEST1", "18:00-20:00", 2)

	resp, err := uc.Execute(context.Background(), &Request{
		ReservationID:  own.ID,
		Phone:          ptr.Ptr("+886 912-345-678"),
		SpecialRequest: ptr.Ptr("window seat"),
	})
	require.NoError(t, err)
	assert.Equal(t, "window seat", *resp.SpecialRequest)
	assert.Empty(t, db.LockedKeys())

	entries := db.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActorGuest, entries[0].ActorKind)

	resp, err = uc.Execute(context.Background(), &Request{ReservationID: own.ID, Phone: ptr.Ptr(guestPhone), SpecialRequest: ptr.Ptr("  ")})
	require.NoError(t, err)
	assert.Nil(t, resp.SpecialRequest)
}

func TestUseCase_Execute_Access(t *testing.T) {
	tests := []struct {
		name      string
		requester domain.Requester
		phone     *string
		wantErr   error
		wantActor domain.ActorKind
	}{
		{name: "staff of the store", requester: domain.Requester{StaffID: ptr.Ptr(staffID)}, wantActor: domain.ActorMerchant},
		{name: "foreign staff", requester: domain.Requester{StaffID: ptr.Ptr(int64(999))}, wantErr: ErrForbidden},
		{name: "guest with phone", phone: ptr.Ptr(guestPhone), wantActor: domain.ActorGuest},
		{name: "guest with wrong phone", phone: ptr.Ptr("0987654321"), wantErr: ErrForbidden},
		{name: "guest with malformed phone", phone: ptr.Ptr("12345"), wantErr: ErrInvalidInput},
		{name: "member is not the owner", requester: asMember(), wantErr: ErrForbidden},
		{name: "no identity", wantErr: ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, db := newUseCase(t)
			own := putGuest(db, "R20261016-GUEST1", "18:00-20:00", 2)

			_, err := uc.Execute(context.Background(), &Request{
				ReservationID: own.ID,
				Requester:     tt.requester,
				Phone:         tt.phone,
				Adults:        ptr.Ptr(3),
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, db.Entries())
				return
			}
			require.NoError(t, err)
			require.Len(t, db.Entries(), 1)
			assert.Equal(t, tt.wantActor, db.Entries()[0].ActorKind)
		})
	}
}

func TestUseCase_Execute_Errors(t *testing.T) {
	uc, db := newUseCase(t)
	own := putMember(db, "18:00-20:00", 2)
	done := putMember(db, "18:00-20:00", 2)
	require.NoError(t, db.Reservations().UpdateStatus(context.Background(), done.ID, domain.StatusCompleted, nil))

	_, err := uc.Execute(context.Background(), &Request{ReservationID: own.ID, Requester: asMember()})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{ReservationID: own.ID, Requester: asMember(), Children: ptr.Ptr(-1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{ReservationID: own.ID, Requester: asMember(), TimeWindow: ptr.Ptr("soon")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{ReservationID: 404, Requester: asMember(), Adults: ptr.Ptr(2)})
	assert.ErrorIs(t, err, ErrReservationNotFound)

	_, err = uc.Execute(context.Background(), &Request{ReservationID: done.ID, Requester: asMember(), Adults: ptr.Ptr(3)})
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.Empty(t, db.Entries())
}
