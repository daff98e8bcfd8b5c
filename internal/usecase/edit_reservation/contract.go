package edit_reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Reservation, error)
	Update(ctx context.Context, res *domain.Reservation) error
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

// AccessChecker определяет актора и его права на бронирование
type AccessChecker interface {
	Authorize(ctx context.Context, res *domain.Reservation, who domain.Requester) (domain.Actor, error)
}

// OperationRecorder счётчик операций над бронированиями
type OperationRecorder interface {
	IncReservationOperation(operation, outcome string)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
