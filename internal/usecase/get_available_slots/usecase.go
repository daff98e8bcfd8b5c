package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	storeClient "github.com/m04kA/SMC-ReservationService/internal/integrations/storeservice"
)

// UseCase use case для получения окон магазина с текущей загрузкой
type UseCase struct {
	reservationRepo ReservationRepository
	windows         WindowLister
	storeClient     StoreServiceClient
	cfg             Config
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	windows WindowLister,
	storeClient StoreServiceClient,
	cfg Config,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		windows:         windows,
		storeClient:     storeClient,
		cfg:             cfg,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения окон на дату
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: store=%d, date=%s", req.StoreID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Проверяем дату
	if err := validateDate(req.Date, uc.timeProvider.Now(), uc.cfg.MaxAdvanceDays); err != nil {
		uc.logger.Warn("GetAvailableSlots: date validation failed: %v", err)
		return nil, err
	}

	date := dateOnly(req.Date)
	weekday := domain.WeekdayOf(date)
	response := &Response{
		StoreID: req.StoreID,
		Date:    date,
		Weekday: weekday,
		Slots:   []Slot{},
	}

	// 3. Получаем магазин
	store, err := uc.storeClient.GetStore(ctx, req.StoreID)
	if err != nil {
		if errors.Is(err, storeClient.ErrStoreNotFound) {
			uc.logger.Warn("GetAvailableSlots: store id=%d not found", req.StoreID)
			return nil, ErrStoreNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get store id=%d: %v", req.StoreID, err)
		return nil, fmt.Errorf("%w: failed to get store: %v", ErrInternal, err)
	}

	if !store.IsActive {
		uc.logger.Info("GetAvailableSlots: store id=%d is not accepting reservations", req.StoreID)
		return response, nil
	}

	// 4. Окна на день недели (через кэш каталога)
	windows, err := uc.windows.List(ctx, req.StoreID, &weekday)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list windows: %v", err)
		return nil, fmt.Errorf("%w: failed to list windows: %v", ErrInternal, err)
	}

	if len(windows) == 0 {
		uc.logger.Info("GetAvailableSlots: store id=%d has no windows on %s", req.StoreID, weekday)
		return response, nil
	}

	// 5. Загрузка по окнам на эту дату
	loads, err := uc.reservationRepo.SumActiveHeadcountByWindow(ctx, req.StoreID, date)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get loads: %v", err)
		return nil, fmt.Errorf("%w: failed to get loads: %v", ErrInternal, err)
	}

	// 6. Собираем ответ
	response.Slots = buildSlots(windows, loads, date)

	uc.logger.Info("GetAvailableSlots: %d windows for store=%d on %s",
		len(response.Slots), req.StoreID, date.Format(domain.DateFormat))

	return response, nil
}
