package get_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgReservationNotFound  = "бронирование не найдено"
	msgAccessDenied         = "нет доступа к бронированию"
	msgUnauthorized         = "требуется авторизация"
	msgInvalidPhone         = "некорректный номер телефона"
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

// Handle GET /api/v1/reservations/{reservationId}
// Гость может передать телефон в query параметре phone
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathInt64(r, "reservationId")
	if err != nil {
		h.logger.Warn("GET /reservations/{id} - %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	who := middleware.RequesterFrom(r.Context())
	if phone := r.URL.Query().Get("phone"); phone != "" && !who.IsStaff() && !who.IsMember() {
		who.Phone = &phone
	}

	result, err := h.service.Get(r.Context(), reservationID, who)
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrReservationNotFound):
			h.logger.Warn("GET /reservations/{id} - Reservation not found: id=%d", reservationID)
			handlers.RespondNotFound(w, msgReservationNotFound)

		case errors.Is(err, reservations.ErrUnauthorized):
			handlers.RespondUnauthorized(w, msgUnauthorized)

		case errors.Is(err, reservations.ErrForbidden):
			h.logger.Warn("GET /reservations/{id} - Access denied: id=%d", reservationID)
			handlers.RespondForbidden(w, msgAccessDenied)

		case errors.Is(err, reservations.ErrInvalidInput):
			handlers.RespondValidationError(w, msgInvalidPhone, err, reservations.ErrInvalidInput)

		default:
			h.logger.Error("GET /reservations/{id} - Failed to get reservation: id=%d, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /reservations/{id} - Reservation retrieved: id=%d", reservationID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
