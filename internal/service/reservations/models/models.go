package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid reservation status")

	// ErrInvalidDate возвращается при некорректной дате фильтра
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
)

// Request модели

// CancelRequest запрос на отмену бронирования
// Requester заполняет хендлер: сотрудник и участник из заголовков шлюза, гость телефоном из тела
type CancelRequest struct {
	ReservationID int64            `json:"-"`
	Requester     domain.Requester `json:"-"`
	Phone         *string          `json:"phone,omitempty"`
	Reason        *string          `json:"reason,omitempty"`
}

// UpdateStatusRequest запрос сотрудника на смену статуса
type UpdateStatusRequest struct {
	ReservationID int64   `json:"-"`
	StaffID       int64   `json:"-"`
	Status        string  `json:"status"`
	Note          *string `json:"note,omitempty"`
}

// DeleteRequest запрос сотрудника на удаление бронирования
type DeleteRequest struct {
	ReservationID int64   `json:"-"`
	StaffID       int64   `json:"-"`
	Note          *string `json:"note,omitempty"`
}

// ListStoreReservationsRequest запрос бронирований магазина
type ListStoreReservationsRequest struct {
	StaffID    int64
	StoreID    int64
	StartDate  *string // YYYY-MM-DD
	EndDate    *string // YYYY-MM-DD
	TimeWindow *string
	Status     *string
	Limit      uint64
	Offset     uint64
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListStoreReservationsRequest) ToDomainFilter() (domain.StoreReservationsFilter, error) {
	filter := domain.StoreReservationsFilter{
		StoreID:    r.StoreID,
		TimeWindow: r.TimeWindow,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}

	var err error
	if filter.StartDate, err = ParseOptionalDate(r.StartDate); err != nil {
		return filter, err
	}
	if filter.EndDate, err = ParseOptionalDate(r.EndDate); err != nil {
		return filter, err
	}

	if r.Status != nil {
		status, err := ToDomainStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// StatsRequest запрос статистики магазина
type StatsRequest struct {
	StaffID   int64
	StoreID   int64
	StartDate *string
	EndDate   *string
}

// Response модели

// ReservationResponse ответ с данными бронирования
type ReservationResponse struct {
	ID              int64   `json:"id"`
	Reference       string  `json:"reference"`
	StoreID         int64   `json:"storeId"`
	MemberID        *int64  `json:"memberId,omitempty"`
	IsGuest         bool    `json:"isGuest"`
	ContactName     string  `json:"contactName"`
	ContactPhone    string  `json:"contactPhone"`
	ContactEmail    *string `json:"contactEmail,omitempty"`
	ContactGender   *string `json:"contactGender,omitempty"`
	ReservationDate string  `json:"reservationDate"` // "2026-10-16"
	TimeWindow      string  `json:"timeWindow"`      // "18:00-20:00"
	Adults          int     `json:"adults"`
	Children        int     `json:"children"`
	Headcount       int     `json:"headcount"`
	SpecialRequest  *string `json:"specialRequest,omitempty"`
	Status          string  `json:"status"`

	CancelledBy        *string `json:"cancelledBy,omitempty"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601
	ConfirmedAt        *string `json:"confirmedAt,omitempty"` // ISO 8601

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReservationListResponse ответ со списком бронирований
type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
}

// ChangeLogEntryResponse запись журнала изменений
type ChangeLogEntryResponse struct {
	ID         int64           `json:"id"`
	ChangeType string          `json:"changeType"`
	ActorKind  string          `json:"actorKind"`
	ActorID    *int64          `json:"actorId,omitempty"`
	OldValues  domain.Snapshot `json:"oldValues,omitempty"`
	NewValues  domain.Snapshot `json:"newValues,omitempty"`
	Changed    []string        `json:"changed,omitempty"`
	Note       *string         `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// HistoryResponse журнал изменений бронирования
type HistoryResponse struct {
	ReservationID int64                    `json:"reservationId"`
	Reference     string                   `json:"reference,omitempty"`
	Entries       []ChangeLogEntryResponse `json:"entries"`
}

// StatsResponse количество бронирований по статусам
type StatsResponse struct {
	StoreID   int64          `json:"storeId"`
	StartDate *string        `json:"startDate,omitempty"`
	EndDate   *string        `json:"endDate,omitempty"`
	ByStatus  map[string]int `json:"byStatus"`
	Active    int            `json:"active"`
	Total     int            `json:"total"`
}

// Методы конвертации

// FromDomainReservation конвертирует domain модель в DTO
func FromDomainReservation(r *domain.Reservation) *ReservationResponse {
	if r == nil {
		return nil
	}

	resp := &ReservationResponse{
		ID:                 r.ID,
		Reference:          r.Reference,
		StoreID:            r.StoreID,
		MemberID:           r.MemberID,
		IsGuest:            r.IsGuest(),
		ContactName:        r.ContactName,
		ContactPhone:       r.ContactPhone,
		ContactEmail:       r.ContactEmail,
		ContactGender:      r.ContactGender,
		ReservationDate:    r.ReservationDate.Format(domain.DateFormat),
		TimeWindow:         r.TimeWindow,
		Adults:             r.Adults,
		Children:           r.Children,
		Headcount:          r.Headcount(),
		SpecialRequest:     r.SpecialRequest,
		Status:             string(r.Status),
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	if r.CancelledBy != nil {
		by := string(*r.CancelledBy)
		resp.CancelledBy = &by
	}
	if r.CancelledAt != nil {
		cancelledStr := r.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}
	if r.ConfirmedAt != nil {
		confirmedStr := r.ConfirmedAt.Format(time.RFC3339)
		resp.ConfirmedAt = &confirmedStr
	}

	return resp
}

// FromDomainReservationList конвертирует список domain моделей в DTO
func FromDomainReservationList(reservations []*domain.Reservation) *ReservationListResponse {
	resp := &ReservationListResponse{
		Reservations: make([]ReservationResponse, 0, len(reservations)),
	}
	for _, r := range reservations {
		resp.Reservations = append(resp.Reservations, *FromDomainReservation(r))
	}
	return resp
}

// FromDomainHistory конвертирует журнал изменений
func FromDomainHistory(reservationID int64, entries []*domain.ChangeLogEntry) *HistoryResponse {
	resp := &HistoryResponse{
		ReservationID: reservationID,
		Entries:       make([]ChangeLogEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Reference = e.Reference
		resp.Entries = append(resp.Entries, ChangeLogEntryResponse{
			ID:         e.ID,
			ChangeType: string(e.ChangeType),
			ActorKind:  string(e.ActorKind),
			ActorID:    e.ActorID,
			OldValues:  e.OldValues,
			NewValues:  e.NewValues,
			Changed:    changedFields(e),
			Note:       e.Note,
			CreatedAt:  e.CreatedAt,
		})
	}
	return resp
}

// changedFields поля, отличающиеся между снимками; только для записей об изменении
func changedFields(e *domain.ChangeLogEntry) []string {
	if e.OldValues == nil || e.NewValues == nil {
		return nil
	}
	return e.OldValues.Diff(e.NewValues)
}

// FromDomainStats конвертирует статистику
func FromDomainStats(stats *domain.StatusStats, startDate, endDate *string) *StatsResponse {
	resp := &StatsResponse{
		StoreID:   stats.StoreID,
		StartDate: startDate,
		EndDate:   endDate,
		ByStatus:  make(map[string]int, len(domain.AllStatuses)),
		Total:     stats.Total,
	}
	for _, status := range domain.AllStatuses {
		count := stats.Counts[status]
		resp.ByStatus[string(status)] = count
		if status.IsActive() {
			resp.Active += count
		}
	}
	return resp
}

// ToDomainStatus конвертирует строку в статус
func ToDomainStatus(s string) (domain.ReservationStatus, error) {
	status := domain.ReservationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// ParseOptionalDate разбирает YYYY-MM-DD, nil остаётся nil
func ParseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateFormat, *s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, *s)
	}
	return &t, nil
}
