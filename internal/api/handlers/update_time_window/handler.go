package update_time_window

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/timewindows"
	"github.com/m04kA/SMC-ReservationService/internal/service/timewindows/models"
)

const (
	msgInvalidWindowID    = "некорректный ID окна"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingStaffID     = "требуется авторизация сотрудника"
	msgInvalidData        = "некорректные параметры окна"
	msgWindowNotFound     = "окно не найдено"
	msgStoreNotFound      = "магазин не найден"
	msgAccessDenied       = "сотрудник не относится к магазину окна"
	msgWindowExists       = "окно с таким днём и временем начала уже существует"
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

// Handle PUT /api/v1/merchant/time-windows/{windowId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	windowID, err := handlers.PathInt64(r, "windowId")
	if err != nil {
		h.logger.Warn("PUT /merchant/time-windows/{id} - %v", err)
		handlers.RespondBadRequest(w, msgInvalidWindowID)
		return
	}

	staffID, ok := middleware.GetStaffID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingStaffID)
		return
	}

	var req models.UpdateWindowRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /merchant/time-windows/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.WindowID = windowID
	req.StaffID = staffID

	result, err := h.service.Update(r.Context(), &req)
	if err != nil {
		// активные брони на окне: 409 с их количеством
		if handlers.RespondCommonError(w, err) {
			h.logger.Warn("PUT /merchant/time-windows/{id} - Rejected: window_id=%d, error=%v", windowID, err)
			return
		}

		switch {
		case errors.Is(err, timewindows.ErrInvalidInput):
			h.logger.Warn("PUT /merchant/time-windows/{id} - Invalid data: window_id=%d, error=%v", windowID, err)
			handlers.RespondValidationError(w, msgInvalidData, err, timewindows.ErrInvalidInput)

		case errors.Is(err, timewindows.ErrWindowNotFound):
			handlers.RespondNotFound(w, msgWindowNotFound)

		case errors.Is(err, timewindows.ErrWindowExists):
			handlers.RespondConflict(w, msgWindowExists)

		case errors.Is(err, timewindows.ErrStoreNotFound):
			handlers.RespondNotFound(w, msgStoreNotFound)

		case errors.Is(err, timewindows.ErrAccessDenied):
			h.logger.Warn("PUT /merchant/time-windows/{id} - Access denied: window_id=%d, staff_id=%d", windowID, staffID)
			handlers.RespondForbidden(w, msgAccessDenied)

		default:
			h.logger.Error("PUT /merchant/time-windows/{id} - Failed to update window: window_id=%d, error=%v", windowID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /merchant/time-windows/{id} - Window updated: window_id=%d, window=%s", windowID, result.TimeWindow)
	handlers.RespondJSON(w, http.StatusOK, result)
}
