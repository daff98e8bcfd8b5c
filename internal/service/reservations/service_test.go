package reservations

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
	"github.com/m04kA/SMC-ReservationService/internal/service/guests"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/memstore"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
)

const (
	storeID  = int64(1)
	staffID  = int64(100)
	memberID = int64(7)
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type fakeStores struct{}

func (fakeStores) GetStore(_ context.Context, id int64) (*storeservice.Store, error) {
	if id != storeID {
		return nil, storeservice.ErrStoreNotFound
	}
	return &storeservice.Store{ID: storeID, IsActive: true, StaffIDs: []int64{staffID}}, nil
}

type operations map[string]int

func (o operations) IncReservationOperation(op, outcome string) {
	o[op+":"+outcome]++
}

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc *Service
	db  *memstore.DB
	ops operations
	gs  *guests.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gs, err := guests.NewService(nil, guests.Config{}, nopLogger{})
	require.NoError(t, err)

	db := memstore.New()
	ops := operations{}
	checker := access.NewChecker(fakeStores{}, gs, nopLogger{})
	svc := NewService(db.Reservations(), db.ChangeLog(), checker, db, ops, nopLogger{}).
		WithTimeProvider(fixedTime{now})
	return &fixture{svc: svc, db: db, ops: ops, gs: gs}
}

func (f *fixture) memberReservation() *domain.Reservation {
	return f.db.Put(&domain.Reservation{
		Reference:       "R20261016-AAAAAA",
		StoreID:         storeID,
		MemberID:        ptr.Ptr(memberID),
		ContactName:     "Lin",
		ContactPhone:    "0911111111",
		ReservationDate: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
		TimeWindow:      "18:00-20:00",
		Adults:          2,
		Status:          domain.StatusPending,
	})
}

func (f *fixture) guestReservation(t *testing.T, phone string) *domain.Reservation {
	t.Helper()
	token, err := f.gs.TokenFor(phone)
	require.NoError(t, err)
	return f.db.Put(&domain.Reservation{
		Reference:       "R20261016-GGGGGG",
		StoreID:         storeID,
		ContactName:     "Guest",
		ContactPhone:    phone,
		ReservationDate: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
		TimeWindow:      "18:00-20:00",
		Adults:          4,
		Status:          domain.StatusConfirmed,
		PhoneToken:      &token,
	})
}

func TestService_Cancel_ByMember(t *testing.T) {
	f := newFixture(t)
	res := f.memberReservation()

	resp, err := f.svc.Cancel(context.Background(), &models.CancelRequest{
		ReservationID: res.ID,
		Requester:     domain.Requester{MemberID: ptr.Ptr(memberID)},
		Reason:        ptr.Ptr("plans changed"),
	})
	require.NoError(t, err)

	assert.Equal(t, "cancelled", resp.Status)
	require.NotNil(t, resp.CancelledBy)
	assert.Equal(t, "customer", *resp.CancelledBy)
	assert.Equal(t, "2026-10-15T12:00:00Z", *resp.CancelledAt)

	stored := f.db.All()[0]
	assert.Equal(t, domain.StatusCancelled, stored.Status)

	entries := f.db.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ChangeCancelled, entries[0].ChangeType)
	assert.Equal(t, domain.ActorCustomer, entries[0].ActorKind)
	assert.Equal(t, "pending", entries[0].OldValues["status"])
	assert.Equal(t, "cancelled", entries[0].NewValues["status"])
	assert.Equal(t, 1, f.ops["cancel:success"])
}

func TestService_Cancel_ByGuestPhone(t *testing.T) {
	f := newFixture(t)
	res := f.guestReservation(t, "0912345678")

	// чужой телефон
	_, err := f.svc.Cancel(context.Background(), &models.CancelRequest{ReservationID: res.ID, Phone: ptr.Ptr("0987654321")})
	assert.ErrorIs(t, err, ErrForbidden)

	// тот же номер в международном формате
	resp, err := f.svc.Cancel(context.Background(), &models.CancelRequest{ReservationID: res.ID, Phone: ptr.Ptr("+886 912-345-678")})
	require.NoError(t, err)
	assert.Equal(t, "guest", *resp.CancelledBy)

	entries := f.db.Entries()
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].ActorID)
	assert.Equal(t, 1, f.ops["cancel:rejected"])
}

func TestService_Cancel_AccessAndState(t *testing.T) {
	f := newFixture(t)
	res := f.memberReservation()
	ctx := context.Background()

	_, err := f.svc.Cancel(ctx, &models.CancelRequest{ReservationID: res.ID, Requester: domain.Requester{MemberID: ptr.Ptr(int64(8))}})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Cancel(ctx, &models.CancelRequest{ReservationID: res.ID})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Cancel(ctx, &models.CancelRequest{ReservationID: 99, Requester: domain.Requester{StaffID: ptr.Ptr(staffID)}})
	assert.ErrorIs(t, err, ErrReservationNotFound)

	_, err = f.svc.Cancel(ctx, &models.CancelRequest{ReservationID: res.ID, Requester: domain.Requester{StaffID: ptr.Ptr(staffID)}})
	require.NoError(t, err)

	// повторная отмена
	_, err = f.svc.Cancel(ctx, &models.CancelRequest{ReservationID: res.ID, Requester: domain.Requester{StaffID: ptr.Ptr(staffID)}})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Len(t, f.db.Entries(), 1)
}

func TestService_Cancel_ReasonTooLong(t *testing.T) {
	f := newFixture(t)
	res := f.memberReservation()

	long := make([]rune, domain.MaxCancellationReasonLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err := f.svc.Cancel(context.Background(), &models.CancelRequest{
		ReservationID: res.ID,
		Requester:     domain.Requester{MemberID: ptr.Ptr(memberID)},
		Reason:        ptr.Ptr(string(long)),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_UpdateStatus_Transitions(t *testing.T) {
	f := newFixture(t)
	res := f.memberReservation()
	ctx := context.Background()

	resp, err := f.svc.UpdateStatus(ctx, &models.UpdateStatusRequest{ReservationID: res.ID, StaffID: staffID, Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status)
	require.NotNil(t, resp.ConfirmedAt)

	// confirmed -> pending не разрешён
	_, err = f.svc.UpdateStatus(ctx, &models.UpdateStatusRequest{ReservationID: res.ID, StaffID: staffID, Status: "pending"})
	assert.ErrorIs(t, err, ErrInvalidState)

	resp, err = f.svc.Complete(ctx, res.ID, staffID)
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)

	// из терминального статуса выхода нет
	for _, next := range []string{"confirmed", "no_show", "cancelled"} {
		_, err = f.svc.UpdateStatus(ctx, &models.UpdateStatusRequest{ReservationID: res.ID, StaffID: staffID, Status: next})
		assert.ErrorIs(t, err, ErrInvalidState, next)
	}

	entries := f.db.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActorMerchant, entries[1].ActorKind)
	assert.Equal(t, staffID, *entries[1].ActorID)
}

func TestService_UpdateStatus_Validation(t *testing.T) {
	f := newFixture(t)
	res := f.memberReservation()
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, &models.UpdateStatusRequest{ReservationID: res.ID, StaffID: staffID, Status: "seated"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.MarkNoShow(ctx, res.ID, 555)
	assert.ErrorIs(t, err, ErrForbidden)

	resp, err := f.svc.UpdateStatus(ctx, &models.UpdateStatusRequest{ReservationID: res.ID, StaffID: staffID, Status: "cancelled", Note: ptr.Ptr("kitchen closed")})
	require.NoError(t, err)
	assert.Equal(t, "merchant", *resp.CancelledBy)
	assert.Equal(t, "kitchen closed", *resp.CancellationReason)
}

func TestService_Delete_WritesAuditFirst(t *testing.T) {
	f := newFixture(t)
	res := f.memberReservation()
	ctx := context.Background()

	err := f.svc.Delete(ctx, &models.DeleteRequest{ReservationID: res.ID, StaffID: 555})
	assert.ErrorIs(t, err, ErrForbidden)

	err = f.svc.Delete(ctx, &models.DeleteRequest{ReservationID: res.ID, StaffID: staffID, Note: ptr.Ptr("duplicate")})
	require.NoError(t, err)
	assert.Empty(t, f.db.All())

	// журнал переживает удаление строки
	history, err := f.svc.History(ctx, res.ID, staffID)
	require.NoError(t, err)
	require.Len(t, history.Entries, 1)
	assert.Equal(t, "deleted", history.Entries[0].ChangeType)
	assert.Equal(t, "R20261016-AAAAAA", history.Reference)
	assert.Nil(t, history.Entries[0].NewValues)
	assert.Equal(t, 1, f.ops["delete:success"])
}

func TestService_History(t *testing.T) {
	f := newFixture(t)
	res := f.memberReservation()
	ctx := context.Background()

	_, err := f.svc.History(ctx, res.ID, staffID)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	_, err = f.svc.Confirm(ctx, res.ID, staffID)
	require.NoError(t, err)

	history, err := f.svc.History(ctx, res.ID, staffID)
	require.NoError(t, err)
	require.Len(t, history.Entries, 1)
	assert.Contains(t, history.Entries[0].Changed, "status")

	_, err = f.svc.History(ctx, res.ID, 555)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_Get(t *testing.T) {
	f := newFixture(t)
	res := f.memberReservation()
	ctx := context.Background()

	resp, err := f.svc.Get(ctx, res.ID, domain.Requester{MemberID: ptr.Ptr(memberID)})
	require.NoError(t, err)
	assert.Equal(t, "R20261016-AAAAAA", resp.Reference)
	assert.Equal(t, 2, resp.Headcount)
	assert.False(t, resp.IsGuest)

	_, err = f.svc.Get(ctx, res.ID, domain.Requester{StaffID: ptr.Ptr(staffID)})
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, res.ID, domain.Requester{MemberID: ptr.Ptr(int64(3))})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_ListsAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	member := f.memberReservation()
	f.guestReservation(t, "0912345678")

	_, err := f.svc.Cancel(ctx, &models.CancelRequest{ReservationID: member.ID, Requester: domain.Requester{MemberID: ptr.Ptr(memberID)}})
	require.NoError(t, err)

	mine, err := f.svc.ListByMember(ctx, memberID, nil)
	require.NoError(t, err)
	assert.Len(t, mine.Reservations, 1)

	mine, err = f.svc.ListByMember(ctx, memberID, ptr.Ptr("confirmed"))
	require.NoError(t, err)
	assert.Empty(t, mine.Reservations)

	_, err = f.svc.ListByMember(ctx, memberID, ptr.Ptr("bogus"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := f.svc.ListByStore(ctx, &models.ListStoreReservationsRequest{
		StaffID:   staffID,
		StoreID:   storeID,
		StartDate: ptr.Ptr("2026-10-16"),
		EndDate:   ptr.Ptr("2026-10-16"),
		Status:    ptr.Ptr("confirmed"),
	})
	require.NoError(t, err)
	require.Len(t, list.Reservations, 1)
	assert.True(t, list.Reservations[0].IsGuest)

	_, err = f.svc.ListByStore(ctx, &models.ListStoreReservationsRequest{StaffID: staffID, StoreID: storeID, StartDate: ptr.Ptr("16/10/2026")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.ListByStore(ctx, &models.ListStoreReservationsRequest{StaffID: staffID, StoreID: 2})
	assert.ErrorIs(t, err, ErrStoreNotFound)

	stats, err := f.svc.Stats(ctx, &models.StatsRequest{StaffID: staffID, StoreID: storeID})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.ByStatus["cancelled"])
	assert.Equal(t, 0, stats.ByStatus["no_show"])

	_, err = f.svc.Stats(ctx, &models.StatsRequest{StaffID: staffID, StoreID: storeID, StartDate: ptr.Ptr("2026-10-20"), EndDate: ptr.Ptr("2026-10-01")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "rejected", Outcome(ErrInvalidState))
	assert.Equal(t, "error", Outcome(errors.Join(ErrInternal, errors.New("boom"))))
}
