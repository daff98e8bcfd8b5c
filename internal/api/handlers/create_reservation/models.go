package create_reservation

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	createReservation "github.com/m04kA/SMC-ReservationService/internal/usecase/create_reservation"
)

// CreateReservationRequest HTTP request model
// Участник определяется по X-Member-ID; без заголовка бронирование гостевое
type CreateReservationRequest struct {
	StoreID         int64   `json:"storeId"`
	ReservationDate string  `json:"reservationDate"` // "2026-10-16"
	TimeWindow      string  `json:"timeWindow"`      // "18:00-20:00"
	Adults          int     `json:"adults"`
	Children        int     `json:"children"`
	ContactName     *string `json:"contactName,omitempty"`
	ContactPhone    *string `json:"contactPhone,omitempty"`
	ContactEmail    *string `json:"contactEmail,omitempty"`
	ContactGender   *string `json:"contactGender,omitempty"`
	SpecialRequest  *string `json:"specialRequest,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateReservationRequest) ToUseCaseRequest(memberID *int64) (*createReservation.Request, error) {
	date, err := time.Parse(domain.DateFormat, r.ReservationDate)
	if err != nil {
		return nil, err
	}

	return &createReservation.Request{
		StoreID:        r.StoreID,
		MemberID:       memberID,
		ContactName:    r.ContactName,
		ContactPhone:   r.ContactPhone,
		ContactEmail:   r.ContactEmail,
		ContactGender:  r.ContactGender,
		Date:           date,
		TimeWindow:     r.TimeWindow,
		Adults:         r.Adults,
		Children:       r.Children,
		SpecialRequest: r.SpecialRequest,
	}, nil
}
