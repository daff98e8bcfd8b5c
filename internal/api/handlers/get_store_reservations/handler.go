package get_store_reservations

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
)

const (
	msgInvalidStoreID = "некорректный ID магазина"
	msgMissingStaffID = "требуется авторизация сотрудника"
	msgInvalidParams  = "некорректные параметры запроса"
	msgStoreNotFound  = "магазин не найден"
	msgAccessDenied   = "сотрудник не относится к магазину"
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

// Handle GET /api/v1/merchant/stores/{storeId}/reservations
// Query params: startDate, endDate, date, timeWindow, status, limit, offset (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	storeID, err := handlers.PathInt64(r, "storeId")
	if err != nil {
		h.logger.Warn("GET /merchant/stores/{id}/reservations - %v", err)
		handlers.RespondBadRequest(w, msgInvalidStoreID)
		return
	}

	staffID, ok := middleware.GetStaffID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingStaffID)
		return
	}

	serviceReq, err := ToServiceRequest(storeID, staffID, r.URL.Query())
	if err != nil {
		h.logger.Warn("GET /merchant/stores/{id}/reservations - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.service.ListByStore(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrInvalidInput):
			handlers.RespondValidationError(w, msgInvalidParams, err, reservations.ErrInvalidInput)

		case errors.Is(err, reservations.ErrStoreNotFound):
			handlers.RespondNotFound(w, msgStoreNotFound)

		case errors.Is(err, reservations.ErrForbidden):
			h.logger.Warn("GET /merchant/stores/{id}/reservations - Access denied: store_id=%d, staff_id=%d", storeID, staffID)
			handlers.RespondForbidden(w, msgAccessDenied)

		default:
			h.logger.Error("GET /merchant/stores/{id}/reservations - Failed to get reservations: store_id=%d, error=%v", storeID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /merchant/stores/{id}/reservations - Reservations retrieved: store_id=%d, count=%d",
		storeID, len(result.Reservations))
	handlers.RespondJSON(w, http.StatusOK, result)
}
