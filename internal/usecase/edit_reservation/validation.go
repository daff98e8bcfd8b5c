package edit_reservation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ReservationID <= 0 {
		return fmt.Errorf("%w: reservationId must be positive", ErrInvalidInput)
	}

	if req.IsEmpty() {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	if req.TimeWindow != nil {
		if _, err := domain.ParseWindowSpec(*req.TimeWindow); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	if req.Adults != nil && *req.Adults < domain.MinAdults {
		return fmt.Errorf("%w: adults must be at least %d", ErrInvalidInput, domain.MinAdults)
	}

	if req.Children != nil && *req.Children < domain.MinChildren {
		return fmt.Errorf("%w: children must not be negative", ErrInvalidInput)
	}

	if req.SpecialRequest != nil && utf8.RuneCountInString(*req.SpecialRequest) > domain.MaxSpecialRequestLength {
		return fmt.Errorf("%w: specialRequest must be at most %d characters", ErrInvalidInput, domain.MaxSpecialRequestLength)
	}

	if req.Note != nil && utf8.RuneCountInString(*req.Note) > domain.MaxChangeNoteLength {
		return fmt.Errorf("%w: note must be at most %d characters", ErrInvalidInput, domain.MaxChangeNoteLength)
	}

	return nil
}

// applyPatch переносит изменения запроса на копию бронирования
// Пустой specialRequest очищает пожелание
func applyPatch(res *domain.Reservation, req *Request) {
	if req.TimeWindow != nil {
		spec, _ := domain.ParseWindowSpec(*req.TimeWindow)
		res.TimeWindow = spec.Label()
	}
	if req.Adults != nil {
		res.Adults = *req.Adults
	}
	if req.Children != nil {
		res.Children = *req.Children
	}
	if req.SpecialRequest != nil {
		if v := strings.TrimSpace(*req.SpecialRequest); v != "" {
			res.SpecialRequest = &v
		} else {
			res.SpecialRequest = nil
		}
	}
}
