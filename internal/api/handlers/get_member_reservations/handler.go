package get_member_reservations

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
)

const (
	msgMissingMemberID = "требуется авторизация участника"
	msgInvalidStatus   = "некорректный статус бронирования"
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

// Handle GET /api/v1/members/me/reservations
// Query params: status (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberID(r.Context())
	if !ok {
		h.logger.Warn("GET /members/me/reservations - Missing member ID")
		handlers.RespondUnauthorized(w, msgMissingMemberID)
		return
	}

	var statusPtr *string
	if status := r.URL.Query().Get("status"); status != "" {
		statusPtr = &status
	}

	result, err := h.service.ListByMember(r.Context(), memberID, statusPtr)
	if err != nil {
		if errors.Is(err, reservations.ErrInvalidInput) {
			handlers.RespondValidationError(w, msgInvalidStatus, err, reservations.ErrInvalidInput)
			return
		}
		h.logger.Error("GET /members/me/reservations - Failed to get reservations: member_id=%d, error=%v", memberID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /members/me/reservations - Reservations retrieved: member_id=%d, count=%d",
		memberID, len(result.Reservations))
	handlers.RespondJSON(w, http.StatusOK, result)
}
