package changelogrelay

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// EntrySource чтение журнала изменений по возрастанию id
type EntrySource interface {
	ListAfter(ctx context.Context, afterID int64, limit uint64) ([]*domain.ChangeLogEntry, error)
}

// OffsetStore позиция ретранслятора
type OffsetStore interface {
	Get(ctx context.Context, consumer string) (int64, error)
	Save(ctx context.Context, consumer string, lastID int64) error
}

// Publisher получатель записей (топик аудита)
type Publisher interface {
	Publish(ctx context.Context, entries []*domain.ChangeLogEntry) error
}

// Recorder метрики ретранслятора
type Recorder interface {
	IncRelayPublished(changeType string)
	IncRelayError(stage string)
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
