package list_time_windows

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/service/timewindows/models"
)

type TimeWindowService interface {
	ListForStaff(ctx context.Context, storeID, staffID int64, day *string) (*models.WindowListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
