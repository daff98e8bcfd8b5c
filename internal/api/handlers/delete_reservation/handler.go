package delete_reservation

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
	msgMissingStaffID       = "требуется авторизация сотрудника"
	msgInvalidInput         = "некорректные данные запроса"
	msgReservationNotFound  = "бронирование не найдено"
	msgStoreNotFound        = "магазин не найден"
	msgAccessDenied         = "сотрудник не относится к магазину бронирования"
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

// Handle DELETE /api/v1/merchant/reservations/{reservationId}
// Тело необязательно: {"note": "..."} попадает в журнал изменений
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathInt64(r, "reservationId")
	if err != nil {
		h.logger.Warn("DELETE /merchant/reservations/{id} - %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	staffID, ok := middleware.GetStaffID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingStaffID)
		return
	}

	var req models.DeleteRequest
	if err := handlers.DecodeOptionalJSON(r, &req); err != nil {
		h.logger.Warn("DELETE /merchant/reservations/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.ReservationID = reservationID
	req.StaffID = staffID

	if err := h.service.Delete(r.Context(), &req); err != nil {
		if handlers.RespondCommonError(w, err) {
			return
		}

		switch {
		case errors.Is(err, reservations.ErrInvalidInput):
			handlers.RespondValidationError(w, msgInvalidInput, err, reservations.ErrInvalidInput)

		case errors.Is(err, reservations.ErrReservationNotFound):
			handlers.RespondNotFound(w, msgReservationNotFound)

		case errors.Is(err, reservations.ErrStoreNotFound):
			handlers.RespondNotFound(w, msgStoreNotFound)

		case errors.Is(err, reservations.ErrForbidden):
			h.logger.Warn("DELETE /merchant/reservations/{id} - Access denied: id=%d, staff_id=%d", reservationID, staffID)
			handlers.RespondForbidden(w, msgAccessDenied)

		default:
			h.logger.Error("DELETE /merchant/reservations/{id} - Failed to delete reservation: id=%d, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /merchant/reservations/{id} - Reservation deleted: id=%d, staff_id=%d", reservationID, staffID)
	w.WriteHeader(http.StatusNoContent)
}
