package capacity

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// LoadRepository источник текущей загрузки окна
type LoadRepository interface {
	SumActiveHeadcount(ctx context.Context, key domain.SlotKey, excludeID int64) (int, error)
}

// RejectionRecorder метрика отказов по вместимости
type RejectionRecorder interface {
	IncCapacityRejection(bound string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
