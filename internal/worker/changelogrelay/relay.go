package changelogrelay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

const (
	stageRead    = "read"
	stagePublish = "publish"
	stageCommit  = "commit"
	stageGap     = "gap"
)

var (
	// ErrRead возвращается, если не удалось прочитать журнал или позицию
	ErrRead = errors.New("changelogrelay: failed to read change log")

	// ErrPublish возвращается, если получатель не принял пачку
	ErrPublish = errors.New("changelogrelay: failed to publish batch")

	// ErrCommit возвращается, если не удалось сохранить позицию
	ErrCommit = errors.New("changelogrelay: failed to save offset")
)

// Config параметры ретранслятора
type Config struct {
	Consumer   string        // имя позиции в change_log_relay_offsets
	Interval   time.Duration // пауза между опросами, когда журнал прочитан до конца
	GapTimeout time.Duration // сколько ждать пропущенный id, прежде чем считать его откатом
	BatchSize  uint64
}

// Relay пересылает журнал изменений получателю, не изменяя сам журнал
// Позиция сдвигается только после успешной отправки, поэтому доставка "хотя бы один раз".
// Отправляется только непрерывная цепочка id после позиции: пропуск в id значит, что
// транзакция с этим id ещё не закоммичена или откатилась. Пропуск ждём GapTimeout
type Relay struct {
	source       EntrySource
	offsets      OffsetStore
	publisher    Publisher
	recorder     Recorder
	cfg          Config
	timeProvider TimeProvider
	logger       Logger

	// первый пропущенный id и момент, когда его заметили
	gapStart int64
	gapSince time.Time
}

// New создает ретранслятор. recorder может быть nil
func New(source EntrySource, offsets OffsetStore, publisher Publisher, recorder Recorder, cfg Config, logger Logger) *Relay {
	if cfg.Consumer == "" {
		cfg.Consumer = "audit-sink"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.GapTimeout <= 0 {
		cfg.GapTimeout = 30 * time.Second
	}
	return &Relay{
		source:       source,
		offsets:      offsets,
		publisher:    publisher,
		recorder:     recorder,
		cfg:          cfg,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (r *Relay) WithTimeProvider(tp TimeProvider) *Relay {
	r.timeProvider = tp
	return r
}

// Run опрашивает журнал до отмены контекста
// Полная пачка читается сразу следующей, иначе ждём Interval
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info("ChangeLogRelay: started (consumer=%s, interval=%s, gap_timeout=%s, batch=%d)",
		r.cfg.Consumer, r.cfg.Interval, r.cfg.GapTimeout, r.cfg.BatchSize)

	for {
		sent, err := r.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.Error("ChangeLogRelay: %v", err)
		}

		wait := r.cfg.Interval
		if err == nil && uint64(sent) == r.cfg.BatchSize {
			wait = 0
		}

		select {
		case <-ctx.Done():
			r.logger.Info("ChangeLogRelay: stopped")
			return
		case <-time.After(wait):
		}
	}
}

// RunOnce отправляет одну пачку и возвращает число отправленных записей
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	// 1. Позиция
	lastID, err := r.offsets.Get(ctx, r.cfg.Consumer)
	if err != nil {
		r.recordError(stageRead)
		return 0, fmt.Errorf("%w: offset: %w", ErrRead, err)
	}

	// 2. Записи после позиции
	entries, err := r.source.ListAfter(ctx, lastID, r.cfg.BatchSize)
	if err != nil {
		r.recordError(stageRead)
		return 0, fmt.Errorf("%w: entries after id=%d: %w", ErrRead, lastID, err)
	}

	// 2.1. Только непрерывная часть: за пропуском может коммититься транзакция с меньшим id
	entries = r.contiguous(lastID, entries)
	if len(entries) == 0 {
		return 0, nil
	}

	// 3. Отправляем пачку
	if err := r.publisher.Publish(ctx, entries); err != nil {
		r.recordError(stagePublish)
		return 0, fmt.Errorf("%w: ids %d..%d: %w", ErrPublish, entries[0].ID, entries[len(entries)-1].ID, err)
	}

	// 4. Сдвигаем позицию
	newLastID := entries[len(entries)-1].ID
	if err := r.offsets.Save(ctx, r.cfg.Consumer, newLastID); err != nil {
		r.recordError(stageCommit)
		return 0, fmt.Errorf("%w: id=%d: %w", ErrCommit, newLastID, err)
	}

	if r.recorder != nil {
		for _, entry := range entries {
			r.recorder.IncRelayPublished(string(entry.ChangeType))
		}
	}

	r.logger.Info("ChangeLogRelay: relayed %d entries, offset %d -> %d", len(entries), lastID, newLastID)
	return len(entries), nil
}

// contiguous обрезает пачку на первом пропуске id. Пропуск, который держится дольше
// GapTimeout, считается откатившейся транзакцией и перешагивается
func (r *Relay) contiguous(lastID int64, entries []*domain.ChangeLogEntry) []*domain.ChangeLogEntry {
	now := r.timeProvider.Now()
	expected := lastID + 1

	for i, entry := range entries {
		if entry.ID == expected {
			expected++
			continue
		}

		if r.gapStart != expected {
			r.gapStart, r.gapSince = expected, now
			r.logger.Info("ChangeLogRelay: waiting for ids %d..%d", expected, entry.ID-1)
			return entries[:i]
		}
		if now.Sub(r.gapSince) < r.cfg.GapTimeout {
			return entries[:i]
		}

		r.logger.Warn("ChangeLogRelay: ids %d..%d missing for %s, treating as rolled back",
			expected, entry.ID-1, now.Sub(r.gapSince))
		r.recordError(stageGap)
		r.gapStart = 0
		expected = entry.ID + 1
	}
	return entries
}

func (r *Relay) recordError(stage string) {
	if r.recorder != nil {
		r.recorder.IncRelayError(stage)
	}
}
