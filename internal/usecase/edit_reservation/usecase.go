package edit_reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationService/internal/service/access"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationService/internal/service/timewindows"
)

const operation = "edit"

// UseCase use case для изменения бронирования
type UseCase struct {
	reservationRepo ReservationRepository
	changeLogRepo   ChangeLogRepository
	windows         WindowResolver
	capacity        CapacityChecker
	access          AccessChecker
	txManager       TransactionManager
	recorder        OperationRecorder
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	changeLogRepo ChangeLogRepository,
	windows WindowResolver,
	capacity CapacityChecker,
	access AccessChecker,
	txManager TransactionManager,
	recorder OperationRecorder,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		changeLogRepo:   changeLogRepo,
		windows:         windows,
		capacity:        capacity,
		access:          access,
		txManager:       txManager,
		recorder:        recorder,
		logger:          logger,
	}
}

// Execute выполняет use case изменения бронирования
// Старый и новый слоты блокируются в фиксированном порядке, вместимость проверяется без учёта самой брони
func (uc *UseCase) Execute(ctx context.Context, req *Request) (resp *models.ReservationResponse, err error) {
	defer func() {
		if uc.recorder != nil {
			uc.recorder.IncReservationOperation(operation, outcome(err))
		}
	}()

	uc.logger.Info("EditReservation: reservation id=%d", req.ReservationID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("EditReservation: validation failed: %v", err)
		return nil, err
	}

	who := req.Requester
	if req.Phone != nil && !who.IsStaff() && !who.IsMember() {
		who.Phone = req.Phone
	}

	// 2. Проверяем права вне транзакции: проверка сотрудника идёт по сети
	res, err := uc.reservationRepo.GetByID(ctx, req.ReservationID)
	if err != nil {
		return nil, uc.repositoryError(req.ReservationID, err)
	}

	actor, err := uc.access.Authorize(ctx, res, who)
	if err != nil {
		uc.logger.Warn("EditReservation: access check failed for reservation id=%d: %v", res.ID, err)
		return nil, mapAccessError(err)
	}

	var result *domain.Reservation

	// 3. Блокировки, проверка вместимости, обновление и журнал в одной транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		updated, err := uc.editInTx(txCtx, req, actor)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("EditReservation: successfully updated reservation id=%d by %s", result.ID, actor.Kind)
	return models.FromDomainReservation(result), nil
}

func (uc *UseCase) editInTx(ctx context.Context, req *Request, actor domain.Actor) (*domain.Reservation, error) {
	// 3.1. Перечитываем строку под блокировкой
	current, err := uc.reservationRepo.GetByIDForUpdate(ctx, req.ReservationID)
	if err != nil {
		return nil, uc.repositoryError(req.ReservationID, err)
	}

	if !current.CanBeEdited() {
		uc.logger.Warn("EditReservation: reservation id=%d cannot be edited, status=%s", current.ID, current.Status)
		return nil, fmt.Errorf("%w: status %s", ErrInvalidState, current.Status)
	}

	updated := current.Clone()
	applyPatch(updated, req)

	oldKey := current.SlotKey()
	newKey := updated.SlotKey()

	// 3.2. Вместимость проверяется, только если сменилось окно или состав компании
	if oldKey.String() != newKey.String() || updated.Headcount() != current.Headcount() {
		if err := uc.lockSlots(ctx, oldKey, newKey); err != nil {
			return nil, err
		}

		window, err := uc.resolveWindow(ctx, newKey)
		if err != nil {
			return nil, err
		}

		load, err := uc.capacity.Reserve(ctx, window, newKey, updated.Headcount(), current.ID)
		if err != nil {
			return nil, err
		}

		uc.logger.Info("EditReservation: window %s has %d/%d guests without reservation id=%d, requested %d",
			window.Label(), load, window.MaxAggregate, current.ID, updated.Headcount())
	}

	// 3.3. Сохраняем изменения
	if err := uc.reservationRepo.Update(ctx, updated); err != nil {
		return nil, uc.repositoryError(current.ID, err)
	}

	// 3.4. Журнал со снимками до и после
	entry := domain.NewChangeLogEntry(updated, domain.ChangeUpdated, actor, current.Snapshot(), updated.Snapshot(), req.Note)
	if err := uc.changeLogRepo.Append(ctx, entry); err != nil {
		uc.logger.Error("EditReservation: failed to append change log for reservation id=%d: %v", current.ID, err)
		return nil, fmt.Errorf("%w: failed to append change log: %w", ErrInternal, err)
	}

	return updated, nil
}

// lockSlots берёт блокировки слотов по возрастанию ключа, одинаковые ключи блокируются один раз
func (uc *UseCase) lockSlots(ctx context.Context, keys ...domain.SlotKey) error {
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	for i, key := range keys {
		if i > 0 && key.String() == keys[i-1].String() {
			continue
		}
		if err := uc.reservationRepo.LockSlot(ctx, key); err != nil {
			uc.logger.Error("EditReservation: failed to lock slot %s: %v", key, err)
			return fmt.Errorf("%w: failed to lock slot: %w", ErrInternal, err)
		}
	}
	return nil
}

func (uc *UseCase) resolveWindow(ctx context.Context, key domain.SlotKey) (*domain.TimeWindow, error) {
	window, err := uc.windows.Resolve(ctx, key.StoreID, key.Date, key.TimeWindow)
	if err == nil {
		return window, nil
	}

	switch {
	case errors.Is(err, timewindows.ErrWindowNotFound):
		uc.logger.Warn("EditReservation: no active window %s on %s", key.TimeWindow, key.Date.Format(domain.DateFormat))
		return nil, fmt.Errorf("%w: %s on %s", ErrWindowNotFound, key.TimeWindow, key.Date.Format(domain.DateFormat))
	case errors.Is(err, timewindows.ErrInvalidInput):
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	uc.logger.Error("EditReservation: failed to resolve window: %v", err)
	return nil, fmt.Errorf("%w: failed to resolve window: %w", ErrInternal, err)
}

func (uc *UseCase) repositoryError(id int64, err error) error {
	if errors.Is(err, reservationRepo.ErrReservationNotFound) {
		uc.logger.Warn("EditReservation: reservation id=%d not found", id)
		return ErrReservationNotFound
	}
	uc.logger.Error("EditReservation: repository error for reservation id=%d: %v", id, err)
	return fmt.Errorf("%w: repository error: %w", ErrInternal, err)
}

func mapAccessError(err error) error {
	switch {
	case errors.Is(err, access.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, access.ErrNoIdentity):
		return ErrUnauthorized
	case errors.Is(err, access.ErrInvalidPhone):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	case errors.Is(err, access.ErrStoreNotFound):
		return ErrStoreNotFound
	default:
		return fmt.Errorf("%w: access check: %v", ErrInternal, err)
	}
}

// outcome метка результата для метрик
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInternal):
		return "error"
	default:
		return "rejected"
	}
}
