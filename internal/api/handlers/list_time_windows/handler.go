package list_time_windows

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/timewindows"
)

const (
	msgInvalidStoreID = "некорректный ID магазина"
	msgMissingStaffID = "требуется авторизация сотрудника"
	msgInvalidDay     = "некорректный день недели"
	msgStoreNotFound  = "магазин не найден"
	msgAccessDenied   = "сотрудник не относится к магазину"
)

type Handler struct {
	service TimeWindowService
	logger  Logger
}

func NewHandler(service TimeWindowService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/merchant/stores/{storeId}/time-windows
// Query params: day (опционально, "fri" или 5); неактивные окна тоже выводятся
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	storeID, err := handlers.PathInt64(r, "storeId")
	if err != nil {
		h.logger.Warn("GET /merchant/stores/{id}/time-windows - %v", err)
		handlers.RespondBadRequest(w, msgInvalidStoreID)
		return
	}

	staffID, ok := middleware.GetStaffID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingStaffID)
		return
	}

	var day *string
	if d := r.URL.Query().Get("day"); d != "" {
		day = &d
	}

	result, err := h.service.ListForStaff(r.Context(), storeID, staffID, day)
	if err != nil {
		switch {
		case errors.Is(err, timewindows.ErrInvalidInput):
			handlers.RespondValidationError(w, msgInvalidDay, err, timewindows.ErrInvalidInput)

		case errors.Is(err, timewindows.ErrStoreNotFound):
			handlers.RespondNotFound(w, msgStoreNotFound)

		case errors.Is(err, timewindows.ErrAccessDenied):
			h.logger.Warn("GET /merchant/stores/{id}/time-windows - Access denied: store_id=%d, staff_id=%d", storeID, staffID)
			handlers.RespondForbidden(w, msgAccessDenied)

		default:
			h.logger.Error("GET /merchant/stores/{id}/time-windows - Failed to list windows: store_id=%d, error=%v", storeID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /merchant/stores/{id}/time-windows - Windows retrieved: store_id=%d, count=%d", storeID, len(result.Windows))
	handlers.RespondJSON(w, http.StatusOK, result)
}
