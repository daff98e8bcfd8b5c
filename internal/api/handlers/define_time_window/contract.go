package define_time_window

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/service/timewindows/models"
)

type TimeWindowService interface {
	Define(ctx context.Context, req *models.DefineWindowRequest) (*models.WindowResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
