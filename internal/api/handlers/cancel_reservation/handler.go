package cancel_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidInput         = "некорректные данные для отмены"
	msgReservationNotFound  = "бронирование не найдено"
	msgStoreNotFound        = "магазин не найден"
	msgAccessDenied         = "нет доступа к бронированию"
	msgUnauthorized         = "требуется авторизация или телефон гостя"
	msgCannotCancel         = "бронирование в текущем статусе нельзя отменить"
)

type Handler struct {
	service ReservationService
	logger  Logger
}

func NewHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations/{reservationId}/cancel
// и POST /api/v1/merchant/reservations/{reservationId}/cancel
// Кто отменяет, определяется по заголовкам шлюза; гость передаёт телефон в теле
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathInt64(r, "reservationId")
	if err != nil {
		h.logger.Warn("POST /reservations/{id}/cancel - %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	var req models.CancelRequest
	if err := handlers.DecodeOptionalJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations/{id}/cancel - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.ReservationID = reservationID
	req.Requester = middleware.RequesterFrom(r.Context())

	result, err := h.service.Cancel(r.Context(), &req)
	if err != nil {
		if handlers.RespondCommonError(w, err) {
			return
		}

		switch {
		case errors.Is(err, reservations.ErrInvalidInput):
			h.logger.Warn("POST /reservations/{id}/cancel - Invalid input: id=%d, error=%v", reservationID, err)
			handlers.RespondValidationError(w, msgInvalidInput, err, reservations.ErrInvalidInput)

		case errors.Is(err, reservations.ErrReservationNotFound):
			handlers.RespondNotFound(w, msgReservationNotFound)

		case errors.Is(err, reservations.ErrStoreNotFound):
			handlers.RespondNotFound(w, msgStoreNotFound)

		case errors.Is(err, reservations.ErrUnauthorized):
			handlers.RespondUnauthorized(w, msgUnauthorized)

		case errors.Is(err, reservations.ErrForbidden):
			h.logger.Warn("POST /reservations/{id}/cancel - Access denied: id=%d", reservationID)
			handlers.RespondForbidden(w, msgAccessDenied)

		case errors.Is(err, reservations.ErrInvalidState):
			h.logger.Warn("POST /reservations/{id}/cancel - Cannot cancel: id=%d", reservationID)
			handlers.RespondConflict(w, msgCannotCancel)

		default:
			h.logger.Error("POST /reservations/{id}/cancel - Failed to cancel reservation: id=%d, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations/{id}/cancel - Reservation cancelled: id=%d, status=%s", reservationID, result.Status)
	handlers.RespondJSON(w, http.StatusOK, result)
}
