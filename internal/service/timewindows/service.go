package timewindows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	windowRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/timewindow"
	storeClient "github.com/m04kA/SMC-ReservationService/internal/integrations/storeservice"
	"github.com/m04kA/SMC-ReservationService/internal/service/timewindows/models"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// Service каталог еженедельных окон бронирования
type Service struct {
	windowRepo   WindowRepository
	counter      ReservationCounter
	cache        WindowCache
	storeClient  StoreServiceClient
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса окон
// cache может быть nil, тогда списки читаются из БД
func NewService(
	windowRepo WindowRepository,
	counter ReservationCounter,
	cache WindowCache,
	storeClient StoreServiceClient,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		windowRepo:   windowRepo,
		counter:      counter,
		cache:        cache,
		storeClient:  storeClient,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// Define создает окно или заменяет существующее с тем же (магазин, день, начало)
// Замена окна с активными бронированиями на будущие даты отклоняется ConflictError
func (s *Service) Define(ctx context.Context, req *models.DefineWindowRequest) (*models.WindowResponse, error) {
	s.logger.Info("Define: store=%d, day=%s, start=%s, end=%v by staff=%d",
		req.StoreID, req.DayOfWeek, req.StartTime, req.EndTime, req.StaffID)

	// 1. Собираем и валидируем окно
	window, err := buildWindow(req)
	if err != nil {
		s.logger.Warn("Define: validation failed: %v", err)
		return nil, err
	}

	// 2. Проверяем права сотрудника
	if err := s.checkStaffAccess(ctx, req.StoreID, req.StaffID); err != nil {
		return nil, err
	}

	var result *domain.TimeWindow

	// 3. Создаем или заменяем окно в транзакции
	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		existing, err := s.windowRepo.GetByKey(txCtx, window.StoreID, window.DayOfWeek, window.StartTime.String())
		if err != nil && !errors.Is(err, windowRepo.ErrWindowNotFound) {
			s.logger.Error("Define: failed to get existing window: %v", err)
			return fmt.Errorf("%w: Define - repository error: %w", ErrInternal, err)
		}

		if existing == nil {
			created, err := s.windowRepo.Create(txCtx, window)
			if err != nil {
				if errors.Is(err, windowRepo.ErrDuplicateWindow) {
					return ErrWindowExists
				}
				s.logger.Error("Define: failed to create window: %v", err)
				return fmt.Errorf("%w: Define - repository error: %w", ErrInternal, err)
			}
			result = created
			return nil
		}

		if err := s.ensureNotInUse(txCtx, existing); err != nil {
			return err
		}

		window.ID = existing.ID
		updated, err := s.windowRepo.Update(txCtx, window)
		if err != nil {
			s.logger.Error("Define: failed to replace window id=%d: %v", existing.ID, err)
			return fmt.Errorf("%w: Define - repository error: %w", ErrInternal, err)
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 4. Сбрасываем кэш после коммита
	s.invalidate(ctx, result.StoreID)

	s.logger.Info("Define: successfully saved window id=%d (%s %s)", result.ID, result.DayOfWeek, result.Label())
	return models.FromDomainWindow(result), nil
}

// Update частично обновляет окно
// Отклоняется ConflictError, если на текущую строку окна есть активные бронирования на будущие даты
func (s *Service) Update(ctx context.Context, req *models.UpdateWindowRequest) (*models.WindowResponse, error) {
	s.logger.Info("Update: window id=%d by staff=%d", req.WindowID, req.StaffID)

	// 1. Получаем окно для проверки прав (вне транзакции, проверка прав идёт по сети)
	current, err := s.getWindow(ctx, "Update", req.WindowID)
	if err != nil {
		return nil, err
	}

	// 2. Проверяем права сотрудника
	if err := s.checkStaffAccess(ctx, current.StoreID, req.StaffID); err != nil {
		return nil, err
	}

	var result *domain.TimeWindow

	// 3. Перечитываем окно с блокировкой, проверяем бронирования и обновляем
	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		window, err := s.getWindow(txCtx, "Update", req.WindowID)
		if err != nil {
			return err
		}

		if err := s.ensureNotInUse(txCtx, window); err != nil {
			return err
		}

		if err := applyPatch(window, req); err != nil {
			s.logger.Warn("Update: validation failed for window id=%d: %v", req.WindowID, err)
			return err
		}

		updated, err := s.windowRepo.Update(txCtx, window)
		if err != nil {
			switch {
			case errors.Is(err, windowRepo.ErrWindowNotFound):
				return ErrWindowNotFound
			case errors.Is(err, windowRepo.ErrDuplicateWindow):
				return ErrWindowExists
			}
			s.logger.Error("Update: repository error for window id=%d: %v", req.WindowID, err)
			return fmt.Errorf("%w: Update - repository error: %w", ErrInternal, err)
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 4. Сбрасываем кэш после коммита
	s.invalidate(ctx, result.StoreID)

	s.logger.Info("Update: successfully updated window id=%d (%s %s)", result.ID, result.DayOfWeek, result.Label())
	return models.FromDomainWindow(result), nil
}

// Delete удаляет окно
// Отклоняется ConflictError, если на окно есть активные бронирования на будущие даты
func (s *Service) Delete(ctx context.Context, windowID, staffID int64) error {
	s.logger.Info("Delete: window id=%d by staff=%d", windowID, staffID)

	current, err := s.getWindow(ctx, "Delete", windowID)
	if err != nil {
		return err
	}

	if err := s.checkStaffAccess(ctx, current.StoreID, staffID); err != nil {
		return err
	}

	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		window, err := s.getWindow(txCtx, "Delete", windowID)
		if err != nil {
			return err
		}

		if err := s.ensureNotInUse(txCtx, window); err != nil {
			return err
		}

		if err := s.windowRepo.Delete(txCtx, windowID); err != nil {
			if errors.Is(err, windowRepo.ErrWindowNotFound) {
				return ErrWindowNotFound
			}
			s.logger.Error("Delete: repository error for window id=%d: %v", windowID, err)
			return fmt.Errorf("%w: Delete - repository error: %w", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, current.StoreID)

	s.logger.Info("Delete: successfully deleted window id=%d", windowID)
	return nil
}

// Resolve находит активное окно для даты и строки окна бронирования
// День недели берётся из даты, начало и конец должны совпасть точно
// Внутри транзакции читает БД (FOR SHARE), кэш не используется
func (s *Service) Resolve(ctx context.Context, storeID int64, date time.Time, timeWindow string) (*domain.TimeWindow, error) {
	spec, err := domain.ParseWindowSpec(timeWindow)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	weekday := domain.WeekdayOf(date)
	window, err := s.windowRepo.FindActive(ctx, storeID, weekday, spec)
	if err != nil {
		if errors.Is(err, windowRepo.ErrWindowNotFound) {
			s.logger.Warn("Resolve: no active window %s on %s for store=%d", spec.Label(), weekday, storeID)
			return nil, fmt.Errorf("%w: %s on %s", ErrWindowNotFound, spec.Label(), weekday)
		}
		s.logger.Error("Resolve: repository error for store=%d: %v", storeID, err)
		return nil, fmt.Errorf("%w: Resolve - repository error: %w", ErrInternal, err)
	}

	return window, nil
}

// List окна магазина (включая неактивные), через кэш
// weekday = nil возвращает все дни
func (s *Service) List(ctx context.Context, storeID int64, weekday *domain.Weekday) ([]*domain.TimeWindow, error) {
	if s.cache != nil {
		windows, found, err := s.cache.Get(ctx, storeID, weekday)
		if err != nil {
			s.logger.Warn("List: cache read failed for store=%d: %v", storeID, err)
		}
		if found {
			return windows, nil
		}
	}

	windows, err := s.windowRepo.ListByStore(ctx, storeID, weekday, false)
	if err != nil {
		s.logger.Error("List: repository error for store=%d: %v", storeID, err)
		return nil, fmt.Errorf("%w: List - repository error: %w", ErrInternal, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, storeID, weekday, windows); err != nil {
			s.logger.Warn("List: cache write failed for store=%d: %v", storeID, err)
		}
	}

	return windows, nil
}

// ListForStaff окна магазина для сотрудника
func (s *Service) ListForStaff(ctx context.Context, storeID, staffID int64, day *string) (*models.WindowListResponse, error) {
	s.logger.Info("ListForStaff: store=%d, day=%v by staff=%d", storeID, day, staffID)

	var weekday *domain.Weekday
	if day != nil {
		wd, err := domain.ParseWeekday(*day)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		weekday = &wd
	}

	if err := s.checkStaffAccess(ctx, storeID, staffID); err != nil {
		return nil, err
	}

	windows, err := s.List(ctx, storeID, weekday)
	if err != nil {
		return nil, err
	}

	return models.FromDomainWindowList(windows), nil
}

// Вспомогательные методы

// ensureNotInUse одним запросом считает активные бронирования на будущие даты этого дня недели и строки окна
func (s *Service) ensureNotInUse(ctx context.Context, window *domain.TimeWindow) error {
	now := s.timeProvider.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	count, err := s.counter.CountActiveForWeekdayWindow(ctx, window.StoreID, window.DayOfWeek, window.Label(), today)
	if err != nil {
		s.logger.Error("ensureNotInUse: failed to count reservations for window id=%d: %v", window.ID, err)
		return fmt.Errorf("%w: ensureNotInUse - repository error: %w", ErrInternal, err)
	}

	if count > 0 {
		s.logger.Warn("ensureNotInUse: window id=%d (%s %s) has %d active reservations",
			window.ID, window.DayOfWeek, window.Label(), count)
		return &ConflictError{WindowID: window.ID, Label: window.Label(), Count: count}
	}

	return nil
}

func (s *Service) getWindow(ctx context.Context, op string, id int64) (*domain.TimeWindow, error) {
	window, err := s.windowRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, windowRepo.ErrWindowNotFound) {
			s.logger.Warn("%s: window id=%d not found", op, id)
			return nil, ErrWindowNotFound
		}
		s.logger.Error("%s: repository error for window id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
	}
	return window, nil
}

// checkStaffAccess проверяет, что сотрудник работает в магазине
func (s *Service) checkStaffAccess(ctx context.Context, storeID, staffID int64) error {
	store, err := s.storeClient.GetStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, storeClient.ErrStoreNotFound) {
			s.logger.Warn("checkStaffAccess: store id=%d not found", storeID)
			return ErrStoreNotFound
		}
		s.logger.Error("checkStaffAccess: failed to get store id=%d: %v", storeID, err)
		return fmt.Errorf("%w: failed to get store: %v", ErrInternal, err)
	}

	if !store.HasStaff(staffID) {
		s.logger.Warn("checkStaffAccess: staff=%d does not belong to store=%d", staffID, storeID)
		return ErrAccessDenied
	}
	return nil
}

// invalidate сбрасывает кэш магазина
// Ошибка только логируется: транзакции разрешают окна из БД, кэш используется для чтения списков
func (s *Service) invalidate(ctx context.Context, storeID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, storeID); err != nil {
		s.logger.Error("invalidate: failed to drop cache for store=%d: %v", storeID, err)
	}
}

func buildWindow(req *models.DefineWindowRequest) (*domain.TimeWindow, error) {
	if req.StoreID <= 0 {
		return nil, fmt.Errorf("%w: storeId must be positive", ErrInvalidInput)
	}

	weekday, err := domain.ParseWeekday(req.DayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	start, err := types.NewTimeStringFromString(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: startTime: %w", ErrInvalidInput, err)
	}

	window := &domain.TimeWindow{
		StoreID:      req.StoreID,
		DayOfWeek:    weekday,
		StartTime:    start,
		MaxAggregate: req.MaxAggregate,
		MaxParty:     req.MaxParty,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}

	if req.EndTime != nil {
		end, err := types.NewTimeStringFromString(*req.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%w: endTime: %w", ErrInvalidInput, err)
		}
		window.EndTime = &end
	}

	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return window, nil
}

func applyPatch(window *domain.TimeWindow, req *models.UpdateWindowRequest) error {
	if req.DayOfWeek != nil {
		weekday, err := domain.ParseWeekday(*req.DayOfWeek)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		window.DayOfWeek = weekday
	}
	if req.StartTime != nil {
		start, err := types.NewTimeStringFromString(*req.StartTime)
		if err != nil {
			return fmt.Errorf("%w: startTime: %w", ErrInvalidInput, err)
		}
		window.StartTime = start
	}
	if req.ClearEndTime {
		window.EndTime = nil
	} else if req.EndTime != nil {
		end, err := types.NewTimeStringFromString(*req.EndTime)
		if err != nil {
			return fmt.Errorf("%w: endTime: %w", ErrInvalidInput, err)
		}
		window.EndTime = &end
	}
	if req.MaxAggregate != nil {
		window.MaxAggregate = *req.MaxAggregate
	}
	if req.MaxParty != nil {
		window.MaxParty = *req.MaxParty
	}
	if req.IsActive != nil {
		window.IsActive = *req.IsActive
	}

	if err := window.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}
