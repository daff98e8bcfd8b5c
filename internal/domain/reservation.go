package domain

import (
	"slices"
	"strconv"
	"time"
)

// ReservationStatus статус бронирования
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusNoShow    ReservationStatus = "no_show"
)

// transitions допустимые переходы статусов. Терминальных статусов в ключах нет
var transitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// IsValid проверяет, что статус известен
func (s ReservationStatus) IsValid() bool {
	return slices.Contains(AllStatuses, s)
}

// IsTerminal возвращает true для completed, cancelled, no_show
func (s ReservationStatus) IsTerminal() bool {
	return slices.Contains(TerminalStatuses, s)
}

// IsActive возвращает true для статусов, занимающих вместимость (pending, confirmed)
func (s ReservationStatus) IsActive() bool {
	return slices.Contains(ActiveStatuses, s)
}

// CanTransitionTo проверяет переход по машине состояний
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	return slices.Contains(transitions[s], next)
}

// Reservation конкретное бронирование на дату в рамках окна
type Reservation struct {
	ID        int64
	Reference string
	StoreID   int64
	MemberID  *int64 // nil = гостевое бронирование

	ContactName   string
	ContactPhone  string
	ContactEmail  *string
	ContactGender *string

	ReservationDate time.Time
	TimeWindow      string // "HH:MM" или "HH:MM-HH:MM", совпадает с Label() окна
	Adults          int
	Children        int
	SpecialRequest  *string

	Status ReservationStatus

	CancelledBy        *ActorKind
	CancellationReason *string
	CancelledAt        *time.Time

	PhoneToken *string // только для гостей

	ConfirmedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Headcount взрослые и дети считаются с одинаковым весом
func (r *Reservation) Headcount() int {
	return r.Adults + r.Children
}

// IsGuest возвращает true для бронирования без аккаунта
func (r *Reservation) IsGuest() bool {
	return r.MemberID == nil
}

// IsActive возвращает true, если бронирование занимает вместимость
func (r *Reservation) IsActive() bool {
	return r.Status.IsActive()
}

// CanBeEdited редактировать можно только pending и confirmed
func (r *Reservation) CanBeEdited() bool {
	return r.Status.IsActive()
}

// CanBeCancelled отменить можно только pending и confirmed
func (r *Reservation) CanBeCancelled() bool {
	return r.Status.CanTransitionTo(StatusCancelled)
}

// BelongsToMember проверяет владельца бронирования
func (r *Reservation) BelongsToMember(memberID int64) bool {
	return r.MemberID != nil && *r.MemberID == memberID
}

// SlotKey ключ (магазин, дата, окно), по которому считается вместимость
func (r *Reservation) SlotKey() SlotKey {
	return NewSlotKey(r.StoreID, r.ReservationDate, r.TimeWindow)
}

// Snapshot состояние бронирования для журнала изменений
func (r *Reservation) Snapshot() Snapshot {
	s := Snapshot{
		"id":               r.ID,
		"reference":        r.Reference,
		"store_id":         r.StoreID,
		"contact_name":     r.ContactName,
		"contact_phone":    r.ContactPhone,
		"reservation_date": r.ReservationDate.Format(DateFormat),
		"time_window":      r.TimeWindow,
		"adults":           r.Adults,
		"children":         r.Children,
		"status":           string(r.Status),
	}
	if r.MemberID != nil {
		s["member_id"] = *r.MemberID
	}
	if r.ContactEmail != nil {
		s["contact_email"] = *r.ContactEmail
	}
	if r.ContactGender != nil {
		s["contact_gender"] = *r.ContactGender
	}
	if r.SpecialRequest != nil {
		s["special_request"] = *r.SpecialRequest
	}
	if r.CancelledBy != nil {
		s["cancelled_by"] = string(*r.CancelledBy)
	}
	if r.CancellationReason != nil {
		s["cancellation_reason"] = *r.CancellationReason
	}
	if r.CancelledAt != nil {
		s["cancelled_at"] = r.CancelledAt.UTC().Format(time.RFC3339)
	}
	if r.ConfirmedAt != nil {
		s["confirmed_at"] = r.ConfirmedAt.UTC().Format(time.RFC3339)
	}
	return s
}

// Clone возвращает копию бронирования (указатели копируются по значению)
func (r *Reservation) Clone() *Reservation {
	c := *r
	c.MemberID = clonePtr(r.MemberID)
	c.ContactEmail = clonePtr(r.ContactEmail)
	c.ContactGender = clonePtr(r.ContactGender)
	c.SpecialRequest = clonePtr(r.SpecialRequest)
	c.CancelledBy = clonePtr(r.CancelledBy)
	c.CancellationReason = clonePtr(r.CancellationReason)
	c.CancelledAt = clonePtr(r.CancelledAt)
	c.PhoneToken = clonePtr(r.PhoneToken)
	c.ConfirmedAt = clonePtr(r.ConfirmedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// SlotKey ключ конкретного окна на конкретную дату
type SlotKey struct {
	StoreID    int64
	Date       time.Time
	TimeWindow string
}

// NewSlotKey нормализует дату до полуночи UTC
func NewSlotKey(storeID int64, date time.Time, window string) SlotKey {
	y, m, d := date.Date()
	return SlotKey{StoreID: storeID, Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), TimeWindow: window}
}

// String используется как ключ advisory lock
func (k SlotKey) String() string {
	return "reservation-slot:" + strconv.FormatInt(k.StoreID, 10) + ":" + k.Date.Format(DateFormat) + ":" + k.TimeWindow
}

// StoreReservationsFilter фильтр для получения бронирований магазина
type StoreReservationsFilter struct {
	StoreID    int64              // Обязательный параметр
	StartDate  *time.Time         // Начало периода (опционально)
	EndDate    *time.Time         // Конец периода (опционально)
	TimeWindow *string            // Конкретное окно (опционально)
	Status     *ReservationStatus // Фильтр по статусу (опционально)
	Limit      uint64             // 0 = без ограничения
	Offset     uint64
}

// StatusStats количество бронирований магазина по статусам
type StatusStats struct {
	StoreID int64
	Counts  map[ReservationStatus]int
	Total   int
}
