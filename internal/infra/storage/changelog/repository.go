package changelog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

const table = "reservation_change_log"

var columns = []string{
	"id",
	"reservation_id",
	"reference",
	"store_id",
	"change_type",
	"actor_kind",
	"actor_id",
	"old_values",
	"new_values",
	"note",
	"created_at",
}

// Repository журнал изменений бронирований
// Только добавление и чтение: UPDATE и DELETE для журнала не предусмотрены
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория журнала
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Append добавляет запись в журнал
// Должен вызываться в той же транзакции, что и изменение бронирования
func (r *Repository) Append(ctx context.Context, entry *domain.ChangeLogEntry) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"reservation_id",
			"reference",
			"store_id",
			"change_type",
			"actor_kind",
			"actor_id",
			"old_values",
			"new_values",
			"note",
		).
		Values(
			entry.ReservationID,
			entry.Reference,
			entry.StoreID,
			string(entry.ChangeType),
			string(entry.ActorKind),
			entry.ActorID,
			entry.OldValues,
			entry.NewValues,
			entry.Note,
		).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Append - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &createdAt); err != nil {
		return fmt.Errorf("%w: Append - execute insert: %w", ErrExecQuery, err)
	}
	entry.CreatedAt = createdAt.Time

	return nil
}

// ListByReservation история бронирования в порядке записи
func (r *Repository) ListByReservation(ctx context.Context, reservationID int64) ([]*domain.ChangeLogEntry, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"reservation_id": reservationID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListByReservation - build select query: %w", ErrBuildQuery, err)
	}

	return r.query(ctx, "ListByReservation", query, args)
}

// ListAfter закоммиченные записи с id больше afterID по возрастанию, не более limit штук
func (r *Repository) ListAfter(ctx context.Context, afterID int64, limit uint64) ([]*domain.ChangeLogEntry, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Gt{"id": afterID}).
		OrderBy("id ASC").
		Limit(limit).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListAfter - build select query: %w", ErrBuildQuery, err)
	}

	return r.query(ctx, "ListAfter", query, args)
}

func (r *Repository) query(ctx context.Context, op, query string, args []interface{}) ([]*domain.ChangeLogEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %w", ErrExecQuery, op, err)
	}
	defer rows.Close()

	entries := make([]*domain.ChangeLogEntry, 0)
	for rows.Next() {
		var entry domain.ChangeLogEntry
		var createdAt sql.NullTime

		err := rows.Scan(
			&entry.ID,
			&entry.ReservationID,
			&entry.Reference,
			&entry.StoreID,
			&entry.ChangeType,
			&entry.ActorKind,
			&entry.ActorID,
			&entry.OldValues,
			&entry.NewValues,
			&entry.Note,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %w", ErrScanRow, op, err)
		}

		entry.CreatedAt = createdAt.Time
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %w", ErrScanRow, op, err)
	}

	return entries, nil
}
