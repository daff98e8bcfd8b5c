package timewindows

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/storeservice"
)

// WindowRepository интерфейс репозитория окон
type WindowRepository interface {
	Create(ctx context.Context, w *domain.TimeWindow) (*domain.TimeWindow, error)
	GetByID(ctx context.Context, id int64) (*domain.TimeWindow, error)
	GetByKey(ctx context.Context, storeID int64, weekday domain.Weekday, start string) (*domain.TimeWindow, error)
	FindActive(ctx context.Context, storeID int64, weekday domain.Weekday, spec domain.WindowSpec) (*domain.TimeWindow, error)
	ListByStore(ctx context.Context, storeID int64, weekday *domain.Weekday, activeOnly bool) ([]*domain.TimeWindow, error)
	Update(ctx context.Context, w *domain.TimeWindow) (*domain.TimeWindow, error)
	Delete(ctx context.Context, id int64) error
}

// ReservationCounter считает активные бронирования, привязанные к окну
type ReservationCounter interface {
	CountActiveForWeekdayWindow(ctx context.Context, storeID int64, weekday domain.Weekday, window string, from time.Time) (int, error)
}

// WindowCache кэш списков окон
type WindowCache interface {
	Get(ctx context.Context, storeID int64, weekday *domain.Weekday) ([]*domain.TimeWindow, bool, error)
	Set(ctx context.Context, storeID int64, weekday *domain.Weekday, windows []*domain.TimeWindow) error
	Invalidate(ctx context.Context, storeID int64) error
}

// StoreServiceClient интерфейс клиента для StoreService
type StoreServiceClient interface {
	GetStore(ctx context.Context, storeID int64) (*storeservice.Store, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
