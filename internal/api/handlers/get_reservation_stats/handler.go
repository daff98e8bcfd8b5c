package get_reservation_stats

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

const (
	msgInvalidStoreID = "некорректный ID магазина"
	msgMissingStaffID = "требуется авторизация сотрудника"
	msgInvalidPeriod  = "некорректный период, ожидаются даты YYYY-MM-DD"
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

// Handle GET /api/v1/merchant/stores/{storeId}/reservations/stats
// Query params: startDate, endDate (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	storeID, err := handlers.PathInt64(r, "storeId")
	if err != nil {
		h.logger.Warn("GET /merchant/stores/{id}/reservations/stats - %v", err)
		handlers.RespondBadRequest(w, msgInvalidStoreID)
		return
	}

	staffID, ok := middleware.GetStaffID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingStaffID)
		return
	}

	req := &models.StatsRequest{StaffID: staffID, StoreID: storeID}
	if s := r.URL.Query().Get("startDate"); s != "" {
		req.StartDate = &s
	}
	if s := r.URL.Query().Get("endDate"); s != "" {
		req.EndDate = &s
	}

	result, err := h.service.Stats(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrInvalidInput):
			handlers.RespondValidationError(w, msgInvalidPeriod, err, reservations.ErrInvalidInput)

		case errors.Is(err, reservations.ErrStoreNotFound):
			handlers.RespondNotFound(w, msgStoreNotFound)

		case errors.Is(err, reservations.ErrForbidden):
			handlers.RespondForbidden(w, msgAccessDenied)

		default:
			h.logger.Error("GET /merchant/stores/{id}/reservations/stats - Failed to get stats: store_id=%d, error=%v", storeID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /merchant/stores/{id}/reservations/stats - Stats retrieved: store_id=%d, total=%d", storeID, result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
