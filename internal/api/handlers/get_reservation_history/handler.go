package get_reservation_history

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgMissingStaffID       = "требуется авторизация сотрудника"
	msgHistoryNotFound      = "журнал изменений бронирования не найден"
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

// Handle GET /api/v1/merchant/reservations/{reservationId}/history
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathInt64(r, "reservationId")
	if err != nil {
		h.logger.Warn("GET /merchant/reservations/{id}/history - %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	staffID, ok := middleware.GetStaffID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingStaffID)
		return
	}

	result, err := h.service.History(r.Context(), reservationID, staffID)
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrReservationNotFound):
			handlers.RespondNotFound(w, msgHistoryNotFound)

		case errors.Is(err, reservations.ErrStoreNotFound):
			handlers.RespondNotFound(w, msgStoreNotFound)

		case errors.Is(err, reservations.ErrForbidden):
			h.logger.Warn("GET /merchant/reservations/{id}/history - Access denied: id=%d, staff_id=%d", reservationID, staffID)
			handlers.RespondForbidden(w, msgAccessDenied)

		default:
			h.logger.Error("GET /merchant/reservations/{id}/history - Failed to get history: id=%d, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /merchant/reservations/{id}/history - History retrieved: id=%d, entries=%d", reservationID, len(result.Entries))
	handlers.RespondJSON(w, http.StatusOK, result)
}
