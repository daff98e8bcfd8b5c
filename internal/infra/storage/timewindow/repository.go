package timewindow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/pgerrors"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

const table = "time_windows"

var columns = []string{
	"id",
	"store_id",
	"day_of_week",
	"start_time",
	"end_time",
	"max_aggregate",
	"max_party",
	"is_active",
	"created_at",
	"updated_at",
}

// Repository репозиторий еженедельных окон бронирования
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория окон
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает окно
func (r *Repository) Create(ctx context.Context, w *domain.TimeWindow) (*domain.TimeWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"store_id",
			"day_of_week",
			"start_time",
			"end_time",
			"max_aggregate",
			"max_party",
			"is_active",
		).
		Values(
			w.StoreID,
			int(w.DayOfWeek),
			w.StartTime,
			w.EndTime,
			w.MaxAggregate,
			w.MaxParty,
			w.IsActive,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&w.ID, &createdAt, &updatedAt)
	if pgerrors.IsUniqueViolation(err) {
		return nil, ErrDuplicateWindow
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	w.CreatedAt = createdAt.Time
	w.UpdatedAt = updatedAt.Time

	return w, nil
}

// GetByID получает окно по ID
// В транзакции строка блокируется FOR UPDATE: получение по ID используется перед изменением окна
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.TimeWindow, error) {
	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	return r.getOne(ctx, "GetByID", selectBuilder)
}

// GetByKey получает окно по (магазин, день недели, начало), включая неактивные
func (r *Repository) GetByKey(ctx context.Context, storeID int64, weekday domain.Weekday, start string) (*domain.TimeWindow, error) {
	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{
			"store_id":    storeID,
			"day_of_week": int(weekday),
			"start_time":  start,
		})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	return r.getOne(ctx, "GetByKey", selectBuilder)
}

// FindActive ищет активное окно с точным совпадением начала и конца
// В транзакции строка берётся FOR SHARE, чтобы окно не изменилось до коммита бронирования
func (r *Repository) FindActive(ctx context.Context, storeID int64, weekday domain.Weekday, spec domain.WindowSpec) (*domain.TimeWindow, error) {
	eq := squirrel.Eq{
		"store_id":    storeID,
		"day_of_week": int(weekday),
		"start_time":  spec.Start,
		"is_active":   true,
	}
	if spec.End == nil {
		eq["end_time"] = nil
	} else {
		eq["end_time"] = *spec.End
	}

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(eq)

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR SHARE")
	}

	return r.getOne(ctx, "FindActive", selectBuilder)
}

// ListByStore окна магазина, опционально на один день недели
func (r *Repository) ListByStore(ctx context.Context, storeID int64, weekday *domain.Weekday, activeOnly bool) ([]*domain.TimeWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"store_id": storeID}).
		OrderBy("day_of_week ASC", "start_time ASC")

	if weekday != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"day_of_week": int(*weekday)})
	}
	if activeOnly {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"is_active": true})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByStore - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByStore - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	windows := make([]*domain.TimeWindow, 0)
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByStore - scan row: %w", ErrScanRow, err)
		}
		windows = append(windows, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByStore - rows error: %w", ErrScanRow, err)
	}

	return windows, nil
}

// Update обновляет окно целиком
func (r *Repository) Update(ctx context.Context, w *domain.TimeWindow) (*domain.TimeWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("day_of_week", int(w.DayOfWeek)).
		Set("start_time", w.StartTime).
		Set("end_time", w.EndTime).
		Set("max_aggregate", w.MaxAggregate).
		Set("max_party", w.MaxParty).
		Set("is_active", w.IsActive).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": w.ID}).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %w", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWindowNotFound
	}
	if pgerrors.IsUniqueViolation(err) {
		return nil, ErrDuplicateWindow
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}

	w.CreatedAt = createdAt.Time
	w.UpdatedAt = updatedAt.Time

	return w, nil
}

// Delete удаляет окно
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %w", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrWindowNotFound
	}

	return nil
}

func (r *Repository) getOne(ctx context.Context, op string, selectBuilder squirrel.SelectBuilder) (*domain.TimeWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %w", ErrBuildQuery, op, err)
	}

	w, err := scanWindow(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWindowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan window: %w", ErrScanRow, op, err)
	}

	return w, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWindow(row rowScanner) (*domain.TimeWindow, error) {
	var w domain.TimeWindow
	var dayOfWeek int
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&w.ID,
		&w.StoreID,
		&dayOfWeek,
		&w.StartTime,
		&w.EndTime,
		&w.MaxAggregate,
		&w.MaxParty,
		&w.IsActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.DayOfWeek = domain.Weekday(dayOfWeek)
	w.CreatedAt = createdAt.Time
	w.UpdatedAt = updatedAt.Time

	return &w, nil
}
