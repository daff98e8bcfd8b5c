package edit_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	editReservation "github.com/m04kA/SMC-ReservationService/internal/usecase/edit_reservation"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidInput         = "некорректные данные для изменения"
	msgReservationNotFound  = "бронирование не найдено"
	msgStoreNotFound        = "магазин не найден"
	msgWindowNotFound       = "на дату бронирования нет такого временного окна"
	msgAccessDenied         = "нет доступа к бронированию"
	msgUnauthorized         = "требуется авторизация или телефон гостя"
	msgInvalidState         = "бронирование в текущем статусе нельзя изменить"
)

type Handler struct {
	useCase EditReservationUseCase
	logger  Logger
}

func NewHandler(useCase EditReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/reservations/{reservationId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathInt64(r, "reservationId")
	if err != nil {
		h.logger.Warn("PATCH /reservations/{id} - %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	var req EditReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /reservations/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(reservationID, middleware.RequesterFrom(r.Context())))
	if err != nil {
		if handlers.RespondCommonError(w, err) {
			h.logger.Warn("PATCH /reservations/{id} - Rejected: id=%d, error=%v", reservationID, err)
			return
		}

		switch {
		case errors.Is(err, editReservation.ErrInvalidInput):
			h.logger.Warn("PATCH /reservations/{id} - Invalid input: id=%d, error=%v", reservationID, err)
			handlers.RespondValidationError(w, msgInvalidInput, err, editReservation.ErrInvalidInput)

		case errors.Is(err, editReservation.ErrReservationNotFound):
			handlers.RespondNotFound(w, msgReservationNotFound)

		case errors.Is(err, editReservation.ErrStoreNotFound):
			handlers.RespondNotFound(w, msgStoreNotFound)

		case errors.Is(err, editReservation.ErrWindowNotFound):
			handlers.RespondNotFound(w, msgWindowNotFound)

		case errors.Is(err, editReservation.ErrUnauthorized):
			handlers.RespondUnauthorized(w, msgUnauthorized)

		case errors.Is(err, editReservation.ErrForbidden):
			h.logger.Warn("PATCH /reservations/{id} - Access denied: id=%d", reservationID)
			handlers.RespondForbidden(w, msgAccessDenied)

		case errors.Is(err, editReservation.ErrInvalidState):
			handlers.RespondConflict(w, msgInvalidState)

		default:
			h.logger.Error("PATCH /reservations/{id} - Failed to edit reservation: id=%d, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /reservations/{id} - Reservation updated: id=%d", reservationID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
