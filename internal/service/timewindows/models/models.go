package models

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Request модели

// DefineWindowRequest запрос на создание окна или замену окна с тем же (день, начало)
type DefineWindowRequest struct {
	StaffID      int64   `json:"-"`
	StoreID      int64   `json:"-"`
	DayOfWeek    string  `json:"dayOfWeek"`         // "fri" или 5
	StartTime    string  `json:"startTime"`         // "18:00"
	EndTime      *string `json:"endTime,omitempty"` // nil = до полуночи
	MaxAggregate int     `json:"maxAggregate"`
	MaxParty     int     `json:"maxParty"`
	IsActive     *bool   `json:"isActive,omitempty"` // по умолчанию true
}

// UpdateWindowRequest частичное обновление окна
// ClearEndTime = true делает окно открытым (до полуночи)
type UpdateWindowRequest struct {
	StaffID      int64   `json:"-"`
	WindowID     int64   `json:"-"`
	DayOfWeek    *string `json:"dayOfWeek,omitempty"`
	StartTime    *string `json:"startTime,omitempty"`
	EndTime      *string `json:"endTime,omitempty"`
	ClearEndTime bool    `json:"clearEndTime,omitempty"`
	MaxAggregate *int    `json:"maxAggregate,omitempty"`
	MaxParty     *int    `json:"maxParty,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// Response модели

// WindowResponse ответ с данными окна
type WindowResponse struct {
	ID           int64     `json:"id"`
	StoreID      int64     `json:"storeId"`
	DayOfWeek    int       `json:"dayOfWeek"`
	DayName      string    `json:"dayName"`
	StartTime    string    `json:"startTime"`
	EndTime      *string   `json:"endTime,omitempty"`
	TimeWindow   string    `json:"timeWindow"` // строка, которую передают при бронировании
	MaxAggregate int       `json:"maxAggregate"`
	MaxParty     int       `json:"maxParty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// WindowListResponse ответ со списком окон
type WindowListResponse struct {
	Windows []WindowResponse `json:"windows"`
}

// FromDomainWindow конвертирует domain модель в DTO
func FromDomainWindow(w *domain.TimeWindow) *WindowResponse {
	if w == nil {
		return nil
	}

	resp := &WindowResponse{
		ID:           w.ID,
		StoreID:      w.StoreID,
		DayOfWeek:    int(w.DayOfWeek),
		DayName:      w.DayOfWeek.String(),
		StartTime:    w.StartTime.String(),
		TimeWindow:   w.Label(),
		MaxAggregate: w.MaxAggregate,
		MaxParty:     w.MaxParty,
		IsActive:     w.IsActive,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
	if w.EndTime != nil {
		end := w.EndTime.String()
		resp.EndTime = &end
	}
	return resp
}

// FromDomainWindowList конвертирует список domain моделей в DTO
func FromDomainWindowList(windows []*domain.TimeWindow) *WindowListResponse {
	resp := &WindowListResponse{
		Windows: make([]WindowResponse, 0, len(windows)),
	}
	for _, w := range windows {
		resp.Windows = append(resp.Windows, *FromDomainWindow(w))
	}
	return resp
}
