package get_available_slots

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-ReservationService/internal/usecase/get_available_slots"
)

const (
	msgMissingStoreID = "ID магазина обязателен"
	msgInvalidStoreID = "некорректный ID магазина"
	msgMissingDate    = "дата обязательна"
	msgInvalidDate    = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgDateInPast     = "дата в прошлом"
	msgDateTooFar     = "дата слишком далеко в будущем"
	msgStoreNotFound  = "магазин не найден"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/time-slots
// Query params: store_id (required), date (required, YYYY-MM-DD)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	storeIDStr := r.URL.Query().Get("store_id")
	if storeIDStr == "" {
		h.logger.Warn("GET /time-slots - Missing store ID")
		handlers.RespondBadRequest(w, msgMissingStoreID)
		return
	}

	storeID, err := strconv.ParseInt(storeIDStr, 10, 64)
	if err != nil || storeID <= 0 {
		h.logger.Warn("GET /time-slots - Invalid store ID: %q", storeIDStr)
		handlers.RespondBadRequest(w, msgInvalidStoreID)
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /time-slots - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	useCaseReq, err := ToUseCaseRequest(storeID, dateStr)
	if err != nil {
		h.logger.Warn("GET /time-slots - Invalid date format: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidDate):
			handlers.RespondBadRequest(w, msgDateInPast)

		case errors.Is(err, getAvailableSlots.ErrDateTooFarInFuture):
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			handlers.RespondValidationError(w, msgInvalidStoreID, err, getAvailableSlots.ErrInvalidInput)

		case errors.Is(err, getAvailableSlots.ErrStoreNotFound):
			h.logger.Warn("GET /time-slots - Store not found: store_id=%d", storeID)
			handlers.RespondNotFound(w, msgStoreNotFound)

		default:
			h.logger.Error("GET /time-slots - Failed to get slots: store_id=%d, date=%s, error=%v", storeID, dateStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /time-slots - Slots retrieved: store_id=%d, date=%s, slots_count=%d",
		storeID, dateStr, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
