package capacity

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Service вычисляет загрузку окна и решает, помещается ли компания
type Service struct {
	repo     LoadRepository
	recorder RejectionRecorder
	logger   Logger
}

// NewService создает новый экземпляр сервиса вместимости
// recorder может быть nil
func NewService(repo LoadRepository, recorder RejectionRecorder, logger Logger) *Service {
	return &Service{
		repo:     repo,
		recorder: recorder,
		logger:   logger,
	}
}

// CurrentLoad сумма гостей (взрослые + дети) pending и confirmed бронирований окна на дату
// excludeID > 0 исключает бронирование из суммы
func (s *Service) CurrentLoad(ctx context.Context, key domain.SlotKey, excludeID int64) (int, error) {
	load, err := s.repo.SumActiveHeadcount(ctx, key, excludeID)
	if err != nil {
		s.logger.Error("CurrentLoad: repository error for store=%d, date=%s, window=%s: %v",
			key.StoreID, key.Date.Format(domain.DateFormat), key.TimeWindow, err)
		return 0, fmt.Errorf("%w: CurrentLoad - repository error: %w", ErrInternal, err)
	}
	return load, nil
}

// Reserve считает загрузку и проверяет, помещается ли requested гостей
// Вызывается внутри транзакции, удерживающей блокировку слота
func (s *Service) Reserve(ctx context.Context, window *domain.TimeWindow, key domain.SlotKey, requested int, excludeID int64) (int, error) {
	load, err := s.CurrentLoad(ctx, key, excludeID)
	if err != nil {
		return 0, err
	}

	if err := CheckFits(window, load, requested); err != nil {
		if s.recorder != nil {
			if exceeded, ok := err.(*ExceededError); ok {
				s.recorder.IncCapacityRejection(string(exceeded.Bound))
			}
		}
		s.logger.Warn("Reserve: store=%d, date=%s, window=%s rejected: %v",
			key.StoreID, key.Date.Format(domain.DateFormat), key.TimeWindow, err)
		return load, err
	}

	return load, nil
}

// CheckFits requested <= MaxParty и load + requested <= MaxAggregate
// Возвращает *ExceededError с оставшейся вместимостью
func CheckFits(window *domain.TimeWindow, load, requested int) error {
	remaining := max(window.MaxAggregate-load, 0)

	if requested > window.MaxParty {
		return &ExceededError{
			Bound:       BoundParty,
			Limit:       window.MaxParty,
			CurrentLoad: load,
			Requested:   requested,
			Remaining:   remaining,
		}
	}

	if load+requested > window.MaxAggregate {
		return &ExceededError{
			Bound:       BoundAggregate,
			Limit:       window.MaxAggregate,
			CurrentLoad: load,
			Requested:   requested,
			Remaining:   remaining,
		}
	}

	return nil
}
