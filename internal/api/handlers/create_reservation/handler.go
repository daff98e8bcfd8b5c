package create_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	createReservation "github.com/m04kA/SMC-ReservationService/internal/usecase/create_reservation"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты бронирования, ожидается YYYY-MM-DD"
	msgInvalidInput       = "некорректные данные бронирования"
	msgStoreNotFound      = "магазин не найден"
	msgStoreInactive      = "магазин не принимает бронирования"
	msgWindowNotFound     = "на выбранную дату нет такого временного окна"
	msgDateInPast         = "дата бронирования в прошлом"
	msgDateTooFar         = "дата бронирования слишком далеко в будущем"
)

type Handler struct {
	useCase CreateReservationUseCase
	logger  Logger
}

func NewHandler(useCase CreateReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	var memberID *int64
	if id, ok := middleware.GetMemberID(r.Context()); ok {
		memberID = &id
	}

	useCaseReq, err := req.ToUseCaseRequest(memberID)
	if err != nil {
		h.logger.Warn("POST /reservations - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		if handlers.RespondCommonError(w, err) {
			h.logger.Warn("POST /reservations - Rejected: store_id=%d, window=%s, error=%v", req.StoreID, req.TimeWindow, err)
			return
		}

		switch {
		case errors.Is(err, createReservation.ErrInvalidInput):
			h.logger.Warn("POST /reservations - Invalid input: store_id=%d, error=%v", req.StoreID, err)
			handlers.RespondValidationError(w, msgInvalidInput, err, createReservation.ErrInvalidInput)

		case errors.Is(err, createReservation.ErrInvalidDate):
			handlers.RespondBadRequest(w, msgDateInPast)

		case errors.Is(err, createReservation.ErrDateTooFarInFuture):
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, createReservation.ErrStoreNotFound):
			h.logger.Warn("POST /reservations - Store not found: store_id=%d", req.StoreID)
			handlers.RespondNotFound(w, msgStoreNotFound)

		case errors.Is(err, createReservation.ErrStoreInactive):
			handlers.RespondConflict(w, msgStoreInactive)

		case errors.Is(err, createReservation.ErrWindowNotFound):
			h.logger.Warn("POST /reservations - Window not found: store_id=%d, window=%s", req.StoreID, req.TimeWindow)
			handlers.RespondNotFound(w, msgWindowNotFound)

		case errors.Is(err, createReservation.ErrReferenceExhausted):
			h.logger.Error("POST /reservations - Reference allocation failed: store_id=%d", req.StoreID)
			handlers.RespondUnavailable(w)

		default:
			h.logger.Error("POST /reservations - Failed to create reservation: store_id=%d, error=%v", req.StoreID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations - Reservation created: id=%d, reference=%s, store_id=%d",
		result.ID, result.Reference, result.StoreID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
