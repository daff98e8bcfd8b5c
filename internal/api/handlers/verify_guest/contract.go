package verify_guest

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/service/guests"
)

type GuestService interface {
	Verify(ctx context.Context, phone string) (*guests.VerifyResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
