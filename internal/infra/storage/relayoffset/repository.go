package relayoffset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

const table = "change_log_relay_offsets"

// Repository хранит позицию, до которой журнал изменений уже отправлен в топик
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория позиций
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get последний отправленный id записи журнала, 0 если потребитель ещё ничего не отправлял
func (r *Repository) Get(ctx context.Context, consumer string) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("last_id").
		From(table).
		Where(squirrel.Eq{"consumer": consumer}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: Get - build select query: %w", ErrBuildQuery, err)
	}

	var lastID int64
	err = executor.QueryRowContext(ctx, query, args...).Scan(&lastID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: Get - execute query: %w", ErrExecQuery, err)
	}

	return lastID, nil
}

// Save сохраняет позицию. Позиция только растёт
func (r *Repository) Save(ctx context.Context, consumer string, lastID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns("consumer", "last_id").
		Values(consumer, lastID).
		Suffix("ON CONFLICT (consumer) DO UPDATE SET last_id = GREATEST(" + table + ".last_id, EXCLUDED.last_id), updated_at = NOW()").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Save - build upsert query: %w", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Save - execute upsert: %w", ErrExecQuery, err)
	}

	return nil
}
