package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/storeservice"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	// SumActiveHeadcountByWindow загрузка по строкам окон на дату (только активные брони)
	SumActiveHeadcountByWindow(ctx context.Context, storeID int64, date time.Time) (map[string]int, error)
}

// WindowLister окна магазина на день недели
type WindowLister interface {
	List(ctx context.Context, storeID int64, weekday *domain.Weekday) ([]*domain.TimeWindow, error)
}

// StoreServiceClient интерфейс клиента для StoreService
type StoreServiceClient interface {
	GetStore(ctx context.Context, storeID int64) (*storeservice.Store, error)
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
