package access

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/storeservice"
)

// StoreServiceClient интерфейс клиента для StoreService
type StoreServiceClient interface {
	GetStore(ctx context.Context, storeID int64) (*storeservice.Store, error)
}

// GuestAuthorizer сверяет телефон гостя с токеном бронирования
type GuestAuthorizer interface {
	Authorize(res *domain.Reservation, phone string) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
