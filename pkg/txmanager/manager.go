package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/pgerrors"
)

const (
	DefaultMaxRetries = 3
	DefaultBackoff    = 20 * time.Millisecond
)

var (
	// ErrBeginTx возвращается, если не удалось начать транзакцию
	ErrBeginTx = errors.New("txmanager: failed to begin transaction")

	// ErrCommit возвращается, если не удалось зафиксировать транзакцию
	ErrCommit = errors.New("txmanager: failed to commit transaction")

	// ErrRetriesExhausted возвращается, когда транзакция так и не прошла после всех повторов
	ErrRetriesExhausted = errors.New("txmanager: transient failure, retries exhausted")
)

// TxBeginner источник транзакций (*dbmetrics.DB)
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error)
}

// RetryRecorder получает уведомления о повторах транзакций
type RetryRecorder interface {
	IncTxRetry(isolation string)
}

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// TransientClassifier решает, можно ли повторить транзакцию после ошибки
type TransientClassifier func(err error) bool

// Manager выполняет функции в транзакции, транзакция передаётся через контекст
type Manager struct {
	db          TxBeginner
	maxRetries  int
	backoff     time.Duration
	isTransient TransientClassifier
	recorder    RetryRecorder
	logger      Logger
}

// Option настройка Manager
type Option func(*Manager)

// WithMaxRetries задаёт количество повторов после первой попытки
func WithMaxRetries(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.maxRetries = n
		}
	}
}

// WithBackoff задаёт базовую задержку между повторами (растёт линейно)
func WithBackoff(d time.Duration) Option {
	return func(m *Manager) {
		m.backoff = d
	}
}

// WithRetryRecorder подключает метрики повторов
func WithRetryRecorder(r RetryRecorder) Option {
	return func(m *Manager) {
		m.recorder = r
	}
}

// WithLogger подключает логгер
func WithLogger(l Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithTransientClassifier подменяет классификатор временных ошибок
func WithTransientClassifier(c TransientClassifier) Option {
	return func(m *Manager) {
		m.isTransient = c
	}
}

// NewTransactionManager создает менеджер транзакций
func NewTransactionManager(db TxBeginner, opts ...Option) *Manager {
	m := &Manager{
		db:          db,
		maxRetries:  DefaultMaxRetries,
		backoff:     DefaultBackoff,
		isTransient: pgerrors.IsTransient,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do выполняет fn в транзакции READ COMMITTED без повторов
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

// DoReadOnly выполняет fn в read-only транзакции
func (m *Manager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: true}, fn)
}

// DoSerializable выполняет fn в SERIALIZABLE транзакции
// При конфликте сериализации, deadlock или таймауте блокировки вся функция выполняется заново,
// не более maxRetries раз. После исчерпания повторов возвращается ErrRetriesExhausted
func (m *Manager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}

	// Вложенный вызов: повторять может только внешняя транзакция
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	var err error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if attempt > 0 {
			if m.recorder != nil {
				m.recorder.IncTxRetry("serializable")
			}
			if m.logger != nil {
				m.logger.Warn("DoSerializable: transient failure, retry %d/%d: %v", attempt, m.maxRetries, err)
			}
			if waitErr := sleep(ctx, time.Duration(attempt)*m.backoff); waitErr != nil {
				return waitErr
			}
		}

		err = m.run(ctx, opts, fn)
		if err == nil || !m.isTransient(err) {
			return err
		}
	}

	return fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
}

func (m *Manager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginTx, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(dbmetrics.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
