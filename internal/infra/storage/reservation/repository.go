package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/pgerrors"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

const table = "reservations"

var columns = []string{
	"id",
	"reference",
	"store_id",
	"member_id",
	"contact_name",
	"contact_phone",
	"contact_email",
	"contact_gender",
	"reservation_date",
	"time_window",
	"adults",
	"children",
	"special_request",
	"status",
	"cancelled_by",
	"cancellation_reason",
	"cancelled_at",
	"phone_token",
	"confirmed_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// При совпадении номера бронирования возвращает ErrReferenceTaken, вызывающий генерирует новый номер
func (r *Repository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"reference",
			"store_id",
			"member_id",
			"contact_name",
			"contact_phone",
			"contact_email",
			"contact_gender",
			"reservation_date",
			"time_window",
			"adults",
			"children",
			"special_request",
			"status",
			"phone_token",
		).
		Values(
			res.Reference,
			res.StoreID,
			res.MemberID,
			res.ContactName,
			res.ContactPhone,
			res.ContactEmail,
			res.ContactGender,
			res.ReservationDate,
			res.TimeWindow,
			res.Adults,
			res.Children,
			res.SpecialRequest,
			string(res.Status),
			res.PhoneToken,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&res.ID, &createdAt, &updatedAt)
	if pgerrors.IsUniqueViolation(err) && pgerrors.Constraint(err) == "reservations_reference_key" {
		return nil, fmt.Errorf("%w: %s", ErrReferenceTaken, res.Reference)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return res, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate получает бронирование с блокировкой строки до конца транзакции
// Вне транзакции работает как GetByID
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Reservation, error) {
	return r.getByID(ctx, id, dbmetrics.IsInTransaction(ctx))
}

func (r *Repository) getByID(ctx context.Context, id int64, forUpdate bool) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id})

	if forUpdate {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %w", ErrBuildQuery, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan reservation: %w", ErrScanRow, err)
	}

	return res, nil
}

// ReferenceExists проверяет, занят ли номер бронирования
func (r *Repository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("1").
		From(table).
		Where(squirrel.Eq{"reference": reference}).
		Limit(1).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: ReferenceExists - build select query: %w", ErrBuildQuery, err)
	}

	var one int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: ReferenceExists - execute query: %w", ErrExecQuery, err)
	}

	return true, nil
}

// Update сохраняет редактируемые поля: окно, состав компании, пожелания
func (r *Repository) Update(ctx context.Context, res *domain.Reservation) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("time_window", res.TimeWindow).
		Set("adults", res.Adults).
		Set("children", res.Children).
		Set("special_request", res.SpecialRequest).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": res.ID}).
		Suffix("RETURNING updated_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %w", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrReservationNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}

	res.UpdatedAt = updatedAt.Time
	return nil
}

// UpdateStatus обновляет статус бронирования
// confirmedAt записывается только если передан
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus, confirmedAt *time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update(table).
		Set("status", string(status)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	if confirmedAt != nil {
		updateBuilder = updateBuilder.Set("confirmed_at", *confirmedAt)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %w", ErrBuildQuery, err)
	}

	return r.execAffectingOne(ctx, executor, "UpdateStatus", query, args)
}

// Cancel отменяет бронирование с указанием инициатора и причины
func (r *Repository) Cancel(ctx context.Context, id int64, by domain.ActorKind, reason *string, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("status", string(domain.StatusCancelled)).
		Set("cancelled_by", string(by)).
		Set("cancellation_reason", reason).
		Set("cancelled_at", at).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %w", ErrBuildQuery, err)
	}

	return r.execAffectingOne(ctx, executor, "Cancel", query, args)
}

// Delete физически удаляет бронирование
// Запись журнала об удалении должна быть добавлена в той же транзакции до вызова
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %w", ErrBuildQuery, err)
	}

	return r.execAffectingOne(ctx, executor, "Delete", query, args)
}

// LockSlot берёт advisory lock на (магазин, дата, окно) до конца транзакции
// Все операции, меняющие загрузку окна, сериализуются на этой блокировке
func (r *Repository) LockSlot(ctx context.Context, key domain.SlotKey) error {
	if !dbmetrics.IsInTransaction(ctx) {
		return ErrNoTransaction
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select().
		Column(squirrel.Expr("pg_advisory_xact_lock(hashtextextended(?, 0))", key.String())).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: LockSlot - build query: %w", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: LockSlot - execute: %w", ErrExecQuery, err)
	}

	return nil
}

// SumActiveHeadcount сумма гостей (взрослые + дети) активных бронирований окна на дату
// excludeID > 0 исключает бронирование из суммы (редактирование не считает само себя)
func (r *Repository) SumActiveHeadcount(ctx context.Context, key domain.SlotKey, excludeID int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("COALESCE(SUM(adults + children), 0)").
		From(table).
		Where(squirrel.Eq{
			"store_id":         key.StoreID,
			"reservation_date": key.Date,
			"time_window":      key.TimeWindow,
			"status":           statusStrings(domain.ActiveStatuses),
		})

	if excludeID > 0 {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": excludeID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: SumActiveHeadcount - build select query: %w", ErrBuildQuery, err)
	}

	var load int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&load); err != nil {
		return 0, fmt.Errorf("%w: SumActiveHeadcount - execute query: %w", ErrExecQuery, err)
	}

	return load, nil
}

// SumActiveHeadcountByWindow загрузка всех окон магазина на дату одним запросом
func (r *Repository) SumActiveHeadcountByWindow(ctx context.Context, storeID int64, date time.Time) (map[string]int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("time_window", "COALESCE(SUM(adults + children), 0)").
		From(table).
		Where(squirrel.Eq{
			"store_id":         storeID,
			"reservation_date": date,
			"status":           statusStrings(domain.ActiveStatuses),
		}).
		GroupBy("time_window").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: SumActiveHeadcountByWindow - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: SumActiveHeadcountByWindow - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	loads := make(map[string]int)
	for rows.Next() {
		var window string
		var load int
		if err := rows.Scan(&window, &load); err != nil {
			return nil, fmt.Errorf("%w: SumActiveHeadcountByWindow - scan row: %w", ErrScanRow, err)
		}
		loads[window] = load
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: SumActiveHeadcountByWindow - rows error: %w", ErrScanRow, err)
	}

	return loads, nil
}

// CountActiveForWeekdayWindow количество активных бронирований на будущие даты,
// которые приходятся на день недели и совпадают со строкой окна
func (r *Repository) CountActiveForWeekdayWindow(ctx context.Context, storeID int64, weekday domain.Weekday, window string, from time.Time) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From(table).
		Where(squirrel.Eq{
			"store_id":    storeID,
			"time_window": window,
			"status":      statusStrings(domain.ActiveStatuses),
		}).
		Where(squirrel.GtOrEq{"reservation_date": from}).
		Where(squirrel.Expr("EXTRACT(ISODOW FROM reservation_date) = ?", int(weekday))).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: CountActiveForWeekdayWindow - build select query: %w", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActiveForWeekdayWindow - execute query: %w", ErrExecQuery, err)
	}

	return count, nil
}

// ListGuestByToken гостевые бронирования по токену телефона начиная с даты since, новые первыми
func (r *Repository) ListGuestByToken(ctx context.Context, token string, since time.Time) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"member_id": nil, "phone_token": token}).
		Where(squirrel.GtOrEq{"reservation_date": since}).
		OrderBy("reservation_date DESC", "created_at DESC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListGuestByToken - build select query: %w", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "ListGuestByToken", query, args)
}

// ListByMember бронирования участника, опционально по статусу
func (r *Repository) ListByMember(ctx context.Context, memberID int64, status *domain.ReservationStatus) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"member_id": memberID}).
		OrderBy("reservation_date DESC", "created_at DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": string(*status)})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByMember - build select query: %w", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "ListByMember", query, args)
}

// ListByStore бронирования магазина с фильтрацией
// Для одной даты сортирует по окну, для периода сначала новые
func (r *Repository) ListByStore(ctx context.Context, filter domain.StoreReservationsFilter) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"store_id": filter.StoreID})

	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"reservation_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"reservation_date": *filter.EndDate})
	}
	if filter.TimeWindow != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"time_window": *filter.TimeWindow})
	}
	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": string(*filter.Status)})
	}

	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.Equal(*filter.EndDate) {
		selectBuilder = selectBuilder.OrderBy("time_window ASC", "created_at ASC")
	} else {
		selectBuilder = selectBuilder.OrderBy("reservation_date DESC", "time_window ASC")
	}

	if filter.Limit > 0 {
		selectBuilder = selectBuilder.Limit(filter.Limit).Offset(filter.Offset)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByStore - build select query: %w", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "ListByStore", query, args)
}

// CountByStatus количество бронирований магазина по статусам за период (границы опциональны)
func (r *Repository) CountByStatus(ctx context.Context, storeID int64, from, to *time.Time) (map[domain.ReservationStatus]int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("status", "COUNT(*)").
		From(table).
		Where(squirrel.Eq{"store_id": storeID}).
		GroupBy("status")

	if from != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"reservation_date": *from})
	}
	if to != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"reservation_date": *to})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CountByStatus - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: CountByStatus - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	counts := make(map[domain.ReservationStatus]int, len(domain.AllStatuses))
	for rows.Next() {
		var status domain.ReservationStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%w: CountByStatus - scan row: %w", ErrScanRow, err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: CountByStatus - rows error: %w", ErrScanRow, err)
	}

	return counts, nil
}

func (r *Repository) execAffectingOne(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute: %w", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %w", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrReservationNotFound
	}

	return nil
}

func (r *Repository) query(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) ([]*domain.Reservation, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %w", ErrExecQuery, op, err)
	}
	defer rows.Close()

	reservations := make([]*domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %w", ErrScanRow, op, err)
		}
		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %w", ErrScanRow, op, err)
	}

	return reservations, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanReservation порядок полей совпадает с columns
func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&res.ID,
		&res.Reference,
		&res.StoreID,
		&res.MemberID,
		&res.ContactName,
		&res.ContactPhone,
		&res.ContactEmail,
		&res.ContactGender,
		&res.ReservationDate,
		&res.TimeWindow,
		&res.Adults,
		&res.Children,
		&res.SpecialRequest,
		&res.Status,
		&res.CancelledBy,
		&res.CancellationReason,
		&res.CancelledAt,
		&res.PhoneToken,
		&res.ConfirmedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return &res, nil
}

func statusStrings(statuses []domain.ReservationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
