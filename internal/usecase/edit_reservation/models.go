package edit_reservation

import "github.com/m04kA/SMC-ReservationService/internal/domain"

// Request модель запроса на изменение бронирования
// nil-поля не меняются
type Request struct {
	ReservationID  int64
	Requester      domain.Requester
	Phone          *string // телефон гостя из тела запроса
	TimeWindow     *string
	Adults         *int
	Children       *int
	SpecialRequest *string
	Note           *string
}

// IsEmpty возвращает true, если запрос ничего не меняет
func (r *Request) IsEmpty() bool {
	return r.TimeWindow == nil && r.Adults == nil && r.Children == nil && r.SpecialRequest == nil
}
