package handlers

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/service/capacity"
	"github.com/m04kA/SMC-ReservationService/internal/service/timewindows"
	"github.com/m04kA/SMC-ReservationService/pkg/txmanager"
)

const (
	msgCapacityExceeded = "недостаточно мест в выбранном окне"
	msgPartyTooLarge    = "слишком большая компания для одного бронирования"
	msgWindowInUse      = "на окно есть активные бронирования"
)

// RespondCommonError отвечает на ошибки, общие для всех операций: вместимость, конфликт окна, исчерпанные повторы
// Возвращает false, если ошибка не из их числа
func RespondCommonError(w http.ResponseWriter, err error) bool {
	var exceeded *capacity.ExceededError
	if errors.As(err, &exceeded) {
		msg := msgCapacityExceeded
		if exceeded.Bound == capacity.BoundParty {
			msg = msgPartyTooLarge
		}
		RespondJSON(w, http.StatusConflict, CapacityErrorResponse{
			Error:       msg,
			Bound:       string(exceeded.Bound),
			Limit:       exceeded.Limit,
			CurrentLoad: exceeded.CurrentLoad,
			Requested:   exceeded.Requested,
			Remaining:   exceeded.Remaining,
		})
		return true
	}

	var conflict *timewindows.ConflictError
	if errors.As(err, &conflict) {
		RespondJSON(w, http.StatusConflict, ConflictErrorResponse{
			Error:              msgWindowInUse,
			ActiveReservations: conflict.Count,
		})
		return true
	}

	if errors.Is(err, txmanager.ErrRetriesExhausted) {
		RespondUnavailable(w)
		return true
	}

	return false
}
