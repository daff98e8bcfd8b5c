package delete_time_window

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/timewindows"
)

const (
	msgInvalidWindowID = "некорректный ID окна"
	msgMissingStaffID  = "требуется авторизация сотрудника"
	msgWindowNotFound  = "окно не найдено"
	msgStoreNotFound   = "магазин не найден"
	msgAccessDenied    = "сотрудник не относится к магазину окна"
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

// Handle DELETE /api/v1/merchant/time-windows/{windowId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	windowID, err := handlers.PathInt64(r, "windowId")
	if err != nil {
		h.logger.Warn("DELETE /merchant/time-windows/{id} - %v", err)
		handlers.RespondBadRequest(w, msgInvalidWindowID)
		return
	}

	staffID, ok := middleware.GetStaffID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingStaffID)
		return
	}

	if err := h.service.Delete(r.Context(), windowID, staffID); err != nil {
		if handlers.RespondCommonError(w, err) {
			h.logger.Warn("DELETE /merchant/time-windows/{id} - Rejected: window_id=%d, error=%v", windowID, err)
			return
		}

		switch {
		case errors.Is(err, timewindows.ErrWindowNotFound):
			handlers.RespondNotFound(w, msgWindowNotFound)

		case errors.Is(err, timewindows.ErrStoreNotFound):
			handlers.RespondNotFound(w, msgStoreNotFound)

		case errors.Is(err, timewindows.ErrAccessDenied):
			h.logger.Warn("DELETE /merchant/time-windows/{id} - Access denied: window_id=%d, staff_id=%d", windowID, staffID)
			handlers.RespondForbidden(w, msgAccessDenied)

		default:
			h.logger.Error("DELETE /merchant/time-windows/{id} - Failed to delete window: window_id=%d, error=%v", windowID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /merchant/time-windows/{id} - Window deleted: window_id=%d, staff_id=%d", windowID, staffID)
	w.WriteHeader(http.StatusNoContent)
}
