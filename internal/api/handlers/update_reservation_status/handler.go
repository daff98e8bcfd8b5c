package update_reservation_status

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
	msgInvalidStatus        = "некорректный статус бронирования"
	msgReservationNotFound  = "бронирование не найдено"
	msgStoreNotFound        = "магазин не найден"
	msgAccessDenied         = "сотрудник не относится к магазину бронирования"
	msgInvalidTransition    = "переход в этот статус недопустим"
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

// Handle POST /api/v1/merchant/reservations/{reservationId}/update-status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathInt64(r, "reservationId")
	if err != nil {
		h.logger.Warn("POST /merchant/reservations/{id}/update-status - %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	staffID, ok := middleware.GetStaffID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingStaffID)
		return
	}

	var req models.UpdateStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /merchant/reservations/{id}/update-status - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.ReservationID = reservationID
	req.StaffID = staffID

	result, err := h.service.UpdateStatus(r.Context(), &req)
	if err != nil {
		if handlers.RespondCommonError(w, err) {
			return
		}

		switch {
		case errors.Is(err, reservations.ErrInvalidInput):
			handlers.RespondValidationError(w, msgInvalidStatus, err, reservations.ErrInvalidInput)

		case errors.Is(err, reservations.ErrReservationNotFound):
			handlers.RespondNotFound(w, msgReservationNotFound)

		case errors.Is(err, reservations.ErrStoreNotFound):
			handlers.RespondNotFound(w, msgStoreNotFound)

		case errors.Is(err, reservations.ErrForbidden):
			h.logger.Warn("POST /merchant/reservations/{id}/update-status - Access denied: id=%d, staff_id=%d", reservationID, staffID)
			handlers.RespondForbidden(w, msgAccessDenied)

		case errors.Is(err, reservations.ErrInvalidState):
			h.logger.Warn("POST /merchant/reservations/{id}/update-status - Invalid transition: id=%d, status=%s", reservationID, req.Status)
			handlers.RespondConflict(w, msgInvalidTransition)

		default:
			h.logger.Error("POST /merchant/reservations/{id}/update-status - Failed to update status: id=%d, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /merchant/reservations/{id}/update-status - Status updated: id=%d, status=%s", reservationID, result.Status)
	handlers.RespondJSON(w, http.StatusOK, result)
}
