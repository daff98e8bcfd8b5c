package reservations

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus, confirmedAt *time.Time) error
	Cancel(ctx context.Context, id int64, by domain.ActorKind, reason *string, at time.Time) error
	Delete(ctx context.Context, id int64) error
	ListByMember(ctx context.Context, memberID int64, status *domain.ReservationStatus) ([]*domain.Reservation, error)
	ListByStore(ctx context.Context, filter domain.StoreReservationsFilter) ([]*domain.Reservation, error)
	CountByStatus(ctx context.Context, storeID int64, from, to *time.Time) (map[domain.ReservationStatus]int, error)
}

// ChangeLogRepository интерфейс журнала изменений
type ChangeLogRepository interface {
	Append(ctx context.Context, entry *domain.ChangeLogEntry) error
	ListByReservation(ctx context.Context, reservationID int64) ([]*domain.ChangeLogEntry, error)
}

// AccessChecker проверка прав сотрудника, участника и гостя
type AccessChecker interface {
	CheckStaff(ctx context.Context, storeID, staffID int64) error
	Authorize(ctx context.Context, res *domain.Reservation, who domain.Requester) (domain.Actor, error)
}

// OperationRecorder счётчик операций над бронированиями
type OperationRecorder interface {
	IncReservationOperation(operation, outcome string)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
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
