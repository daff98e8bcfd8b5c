// Package memstore хранилище бронирований и журнала в памяти для тестов сервисов и сценариев.
// Транзакции выполняются строго по одной: это то, что гарантирует сериализуемая транзакция
// с advisory lock на слот. Ошибка в транзакции откатывает все изменения.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	changelogRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/changelog"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
)

type txKey struct{}

// DB общее состояние и менеджер транзакций
type DB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextReservationID int64
	reservations      map[int64]*domain.Reservation

	nextEntryID int64
	entries     []*domain.ChangeLogEntry

	lockedKeys []string
	commits    int
	rollbacks  int
}

// New создает пустое хранилище
func New() *DB {
	return &DB{reservations: map[int64]*domain.Reservation{}}
}

// Reservations репозиторий бронирований поверх DB
func (db *DB) Reservations() *Reservations {
	return &Reservations{db: db}
}

// ChangeLog журнал изменений поверх DB
func (db *DB) ChangeLog() *ChangeLog {
	return &ChangeLog{db: db}
}

// DoSerializable выполняет fn эксклюзивно и откатывает изменения при ошибке
func (db *DB) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	saved := db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.restore(saved)
		db.mu.Lock()
		db.rollbacks++
		db.mu.Unlock()
		return err
	}

	db.mu.Lock()
	db.commits++
	db.mu.Unlock()
	return nil
}

// Do то же, что DoSerializable
func (db *DB) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.DoSerializable(ctx, fn)
}

// DoReadOnly выполняет fn без блокировки транзакций
func (db *DB) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// LockedKeys ключи слотов в порядке блокировки
func (db *DB) LockedKeys() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]string(nil), db.lockedKeys...)
}

// Stats количество коммитов и откатов
func (db *DB) Stats() (commits, rollbacks int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.commits, db.rollbacks
}

// Entries все записи журнала по порядку
func (db *DB) Entries() []*domain.ChangeLogEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]*domain.ChangeLogEntry, len(db.entries))
	copy(out, db.entries)
	return out
}

// All все бронирования по возрастанию id
func (db *DB) All() []*domain.Reservation {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]*domain.Reservation, 0, len(db.reservations))
	for _, r := range db.reservations {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Put кладёт бронирование напрямую, минуя проверки (подготовка данных в тестах)
func (db *DB) Put(r *domain.Reservation) *domain.Reservation {
	db.mu.Lock()
	defer db.mu.Unlock()
	if r.ID == 0 {
		db.nextReservationID++
		r.ID = db.nextReservationID
	} else if r.ID > db.nextReservationID {
		db.nextReservationID = r.ID
	}
	if r.Status == "" {
		r.Status = domain.StatusPending
	}
	db.reservations[r.ID] = r.Clone()
	return r
}

type state struct {
	nextReservationID int64
	reservations      map[int64]*domain.Reservation
	nextEntryID       int64
	entries           []*domain.ChangeLogEntry
	lockedKeys        []string
}

func (db *DB) snapshot() state {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := state{
		nextReservationID: db.nextReservationID,
		reservations:      make(map[int64]*domain.Reservation, len(db.reservations)),
		nextEntryID:       db.nextEntryID,
		entries:           append([]*domain.ChangeLogEntry(nil), db.entries...),
		lockedKeys:        append([]string(nil), db.lockedKeys...),
	}
	for id, r := range db.reservations {
		s.reservations[id] = r.Clone()
	}
	return s
}

func (db *DB) restore(s state) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextReservationID = s.nextReservationID
	db.reservations = s.reservations
	db.nextEntryID = s.nextEntryID
	db.entries = s.entries
	db.lockedKeys = s.lockedKeys
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// Reservations in-memory аналог репозитория бронирований
type Reservations struct {
	db *DB
}

func (r *Reservations) Create(_ context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, other := range r.db.reservations {
		if other.Reference == res.Reference {
			return nil, fmt.Errorf("%w: %s", reservationRepo.ErrReferenceTaken, res.Reference)
		}
	}

	r.db.nextReservationID++
	res.ID = r.db.nextReservationID
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	r.db.reservations[res.ID] = res.Clone()
	return res, nil
}

func (r *Reservations) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res, ok := r.db.reservations[id]
	if !ok {
		return nil, reservationRepo.ErrReservationNotFound
	}
	return res.Clone(), nil
}

func (r *Reservations) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Reservation, error) {
	return r.GetByID(ctx, id)
}

func (r *Reservations) ReferenceExists(_ context.Context, reference string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, res := range r.db.reservations {
		if res.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}

func (r *Reservations) Update(_ context.Context, res *domain.Reservation) error {
	return r.mutate(res.ID, func(stored *domain.Reservation) {
		stored.TimeWindow = res.TimeWindow
		stored.Adults = res.Adults
		stored.Children = res.Children
		stored.SpecialRequest = res.SpecialRequest
		stored.UpdatedAt = time.Now().UTC()
		res.UpdatedAt = stored.UpdatedAt
	})
}

func (r *Reservations) UpdateStatus(_ context.Context, id int64, status domain.ReservationStatus, confirmedAt *time.Time) error {
	return r.mutate(id, func(stored *domain.Reservation) {
		stored.Status = status
		if confirmedAt != nil {
			at := *confirmedAt
			stored.ConfirmedAt = &at
		}
		stored.UpdatedAt = time.Now().UTC()
	})
}

func (r *Reservations) Cancel(_ context.Context, id int64, by domain.ActorKind, reason *string, at time.Time) error {
	return r.mutate(id, func(stored *domain.Reservation) {
		stored.Status = domain.StatusCancelled
		stored.CancelledBy = &by
		if reason != nil {
			v := *reason
			stored.CancellationReason = &v
		}
		stored.CancelledAt = &at
		stored.UpdatedAt = time.Now().UTC()
	})
}

func (r *Reservations) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.reservations[id]; !ok {
		return reservationRepo.ErrReservationNotFound
	}
	delete(r.db.reservations, id)
	return nil
}

func (r *Reservations) LockSlot(ctx context.Context, key domain.SlotKey) error {
	if !inTx(ctx) {
		return reservationRepo.ErrNoTransaction
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.lockedKeys = append(r.db.lockedKeys, key.String())
	return nil
}

func (r *Reservations) SumActiveHeadcount(_ context.Context, key domain.SlotKey, excludeID int64) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	load := 0
	for _, res := range r.db.reservations {
		if res.ID == excludeID || !res.IsActive() {
			continue
		}
		if res.SlotKey() == key {
			load += res.Headcount()
		}
	}
	return load, nil
}

func (r *Reservations) SumActiveHeadcountByWindow(_ context.Context, storeID int64, date time.Time) (map[string]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	day := domain.NewSlotKey(storeID, date, "").Date
	out := map[string]int{}
	for _, res := range r.db.reservations {
		if res.StoreID == storeID && res.IsActive() && res.SlotKey().Date.Equal(day) {
			out[res.TimeWindow] += res.Headcount()
		}
	}
	return out, nil
}

func (r *Reservations) CountActiveForWeekdayWindow(_ context.Context, storeID int64, weekday domain.Weekday, window string, from time.Time) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	count := 0
	for _, res := range r.db.reservations {
		if res.StoreID == storeID && res.IsActive() && res.TimeWindow == window &&
			!res.ReservationDate.Before(from) && domain.WeekdayOf(res.ReservationDate) == weekday {
			count++
		}
	}
	return count, nil
}

func (r *Reservations) ListGuestByToken(_ context.Context, token string, since time.Time) ([]*domain.Reservation, error) {
	return r.list(func(res *domain.Reservation) bool {
		return res.IsGuest() && res.PhoneToken != nil && *res.PhoneToken == token && !res.ReservationDate.Before(since)
	}, true), nil
}

func (r *Reservations) ListByMember(_ context.Context, memberID int64, status *domain.ReservationStatus) ([]*domain.Reservation, error) {
	return r.list(func(res *domain.Reservation) bool {
		return res.BelongsToMember(memberID) && (status == nil || res.Status == *status)
	}, true), nil
}

func (r *Reservations) ListByStore(_ context.Context, filter domain.StoreReservationsFilter) ([]*domain.Reservation, error) {
	out := r.list(func(res *domain.Reservation) bool {
		switch {
		case res.StoreID != filter.StoreID:
			return false
		case filter.StartDate != nil && res.ReservationDate.Before(*filter.StartDate):
			return false
		case filter.EndDate != nil && res.ReservationDate.After(*filter.EndDate):
			return false
		case filter.TimeWindow != nil && res.TimeWindow != *filter.TimeWindow:
			return false
		case filter.Status != nil && res.Status != *filter.Status:
			return false
		}
		return true
	}, true)

	if filter.Limit > 0 {
		start := min(int(filter.Offset), len(out))
		end := min(start+int(filter.Limit), len(out))
		out = out[start:end]
	}
	return out, nil
}

func (r *Reservations) CountByStatus(_ context.Context, storeID int64, from, to *time.Time) (map[domain.ReservationStatus]int, error) {
	counts := map[domain.ReservationStatus]int{}
	for _, res := range r.list(func(res *domain.Reservation) bool {
		return res.StoreID == storeID &&
			(from == nil || !res.ReservationDate.Before(*from)) &&
			(to == nil || !res.ReservationDate.After(*to))
	}, false) {
		counts[res.Status]++
	}
	return counts, nil
}

func (r *Reservations) mutate(id int64, fn func(stored *domain.Reservation)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.reservations[id]
	if !ok {
		return reservationRepo.ErrReservationNotFound
	}
	fn(stored)
	return nil
}

// list выборка по предикату; newestFirst сортирует по дате по убыванию
func (r *Reservations) list(match func(res *domain.Reservation) bool, newestFirst bool) []*domain.Reservation {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*domain.Reservation, 0)
	for _, res := range r.db.reservations {
		if match(res) {
			out = append(out, res.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst && !out[i].ReservationDate.Equal(out[j].ReservationDate) {
			return out[i].ReservationDate.After(out[j].ReservationDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ChangeLog in-memory аналог журнала изменений
type ChangeLog struct {
	db *DB
}

func (c *ChangeLog) Append(_ context.Context, entry *domain.ChangeLogEntry) error {
	if !entry.ChangeType.IsValid() || !entry.ActorKind.IsValid() {
		return fmt.Errorf("%w: invalid entry", changelogRepo.ErrExecQuery)
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	c.db.nextEntryID++
	entry.ID = c.db.nextEntryID
	entry.CreatedAt = time.Now().UTC()
	stored := *entry
	c.db.entries = append(c.db.entries, &stored)
	return nil
}

func (c *ChangeLog) ListByReservation(_ context.Context, reservationID int64) ([]*domain.ChangeLogEntry, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	out := make([]*domain.ChangeLogEntry, 0)
	for _, e := range c.db.entries {
		if e.ReservationID == reservationID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (c *ChangeLog) ListAfter(_ context.Context, afterID int64, limit uint64) ([]*domain.ChangeLogEntry, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	out := make([]*domain.ChangeLogEntry, 0)
	for _, e := range c.db.entries {
		if e.ID <= afterID {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if limit > 0 && uint64(len(out)) == limit {
			break
		}
	}
	return out, nil
}
