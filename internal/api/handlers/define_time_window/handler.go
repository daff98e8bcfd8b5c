package define_time_window

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/timewindows"
	"github.com/m04kA/SMC-ReservationService/internal/service/timewindows/models"
)

const (
	msgInvalidStoreID     = "некорректный ID магазина"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingStaffID     = "требуется авторизация сотрудника"
	msgInvalidData        = "некорректные параметры окна"
	msgStoreNotFound      = "магазин не найден"
	msgAccessDenied       = "сотрудник не относится к магазину"
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

// Handle POST /api/v1/merchant/stores/{storeId}/time-windows
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	storeID, err := handlers.PathInt64(r, "storeId")
	if err != nil {
		h.logger.Warn("POST /merchant/stores/{id}/time-windows - %v", err)
		handlers.RespondBadRequest(w, msgInvalidStoreID)
		return
	}

	staffID, ok := middleware.GetStaffID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingStaffID)
		return
	}

	var req models.DefineWindowRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /merchant/stores/{id}/time-windows - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.StoreID = storeID
	req.StaffID = staffID

	result, err := h.service.Define(r.Context(), &req)
	if err != nil {
		if handlers.RespondCommonError(w, err) {
			h.logger.Warn("POST /merchant/stores/{id}/time-windows - Rejected: store_id=%d, error=%v", storeID, err)
			return
		}

		switch {
		case errors.Is(err, timewindows.ErrInvalidInput):
			h.logger.Warn("POST /merchant/stores/{id}/time-windows - Invalid data: store_id=%d, error=%v", storeID, err)
			handlers.RespondValidationError(w, msgInvalidData, err, timewindows.ErrInvalidInput)

		case errors.Is(err, timewindows.ErrWindowExists):
			handlers.RespondConflict(w, msgWindowExists)

		case errors.Is(err, timewindows.ErrStoreNotFound):
			handlers.RespondNotFound(w, msgStoreNotFound)

		case errors.Is(err, timewindows.ErrAccessDenied):
			h.logger.Warn("POST /merchant/stores/{id}/time-windows - Access denied: store_id=%d, staff_id=%d", storeID, staffID)
			handlers.RespondForbidden(w, msgAccessDenied)

		default:
			h.logger.Error("POST /merchant/stores/{id}/time-windows - Failed to define window: store_id=%d, error=%v", storeID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /merchant/stores/{id}/time-windows - Window defined: store_id=%d, window_id=%d, window=%s",
		storeID, result.ID, result.TimeWindow)
	handlers.RespondJSON(w, http.StatusOK, result)
}
