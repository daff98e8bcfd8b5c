package verify_guest

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/service/guests"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidPhone       = "некорректный номер телефона"
	msgNoReservations     = "гостевые бронирования по этому номеру не найдены"
)

type Handler struct {
	service GuestService
	logger  Logger
}

func NewHandler(service GuestService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations/verify-guest
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req VerifyGuestRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations/verify-guest - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Verify(r.Context(), req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, guests.ErrInvalidPhone):
			handlers.RespondBadRequest(w, msgInvalidPhone)

		case errors.Is(err, guests.ErrNoGuestReservations):
			handlers.RespondNotFound(w, msgNoReservations)

		default:
			h.logger.Error("POST /reservations/verify-guest - Failed to verify guest: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	// телефон в лог не пишем
	h.logger.Info("POST /reservations/verify-guest - Guest verified: reservations=%d", len(result.Reservations))
	handlers.RespondJSON(w, http.StatusOK, FromServiceResult(result))
}
