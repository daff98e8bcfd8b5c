package edit_reservation

import (
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	editReservation "github.com/m04kA/SMC-ReservationService/internal/usecase/edit_reservation"
)

// EditReservationRequest HTTP request model, отсутствующие поля не меняются
// Phone нужен только гостю
type EditReservationRequest struct {
	Phone          *string `json:"phone,omitempty"`
	TimeWindow     *string `json:"timeWindow,omitempty"`
	Adults         *int    `json:"adults,omitempty"`
	Children       *int    `json:"children,omitempty"`
	SpecialRequest *string `json:"specialRequest,omitempty"`
	Note           *string `json:"note,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *EditReservationRequest) ToUseCaseRequest(id int64, who domain.Requester) *editReservation.Request {
	return &editReservation.Request{
		ReservationID:  id,
		Requester:      who,
		Phone:          r.Phone,
		TimeWindow:     r.TimeWindow,
		Adults:         r.Adults,
		Children:       r.Children,
		SpecialRequest: r.SpecialRequest,
		Note:           r.Note,
	}
}
