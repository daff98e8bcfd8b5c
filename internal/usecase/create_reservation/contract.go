package create_reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/memberservice"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/storeservice"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	LockSlot(ctx context.Context, key domain.SlotKey) error
}

// ChangeLogRepository интерфейс журнала изменений
type ChangeLogRepository interface {
	Append(ctx context.Context, entry *domain.ChangeLogEntry) error
}

// WindowResolver находит активное окно по дате и строке окна
type WindowResolver interface {
	Resolve(ctx context.Context, storeID int64, date time.Time, timeWindow string) (*domain.TimeWindow, error)
}

// CapacityChecker проверяет вместимость окна
type CapacityChecker interface {
	Reserve(ctx context.Context, window *domain.TimeWindow, key domain.SlotKey, requested int, excludeID int64) (int, error)
}

// PhoneVerifier нормализация и токен телефона гостя
type PhoneVerifier interface {
	ValidatePhone(phone string) (string, error)
	TokenFor(phone string) (string, error)
}

// StoreServiceClient интерфейс клиента для StoreService
type StoreServiceClient interface {
	GetStore(ctx context.Context, storeID int64) (*storeservice.Store, error)
}

// MemberServiceClient интерфейс клиента для MemberService
type MemberServiceClient interface {
	GetProfileWithGracefulDegradation(ctx context.Context, memberID int64) (*memberservice.Profile, error)
}

// OperationRecorder счётчик операций над бронированиями
type OperationRecorder interface {
	IncReservationOperation(operation, outcome string)
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
