package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ActorKind кто выполнил действие над бронированием
type ActorKind string

const (
	ActorCustomer ActorKind = "customer"
	ActorMerchant ActorKind = "merchant"
	ActorGuest    ActorKind = "guest"
	ActorSystem   ActorKind = "system"
)

// IsValid проверяет, что тип актора известен
func (a ActorKind) IsValid() bool {
	switch a {
	case ActorCustomer, ActorMerchant, ActorGuest, ActorSystem:
		return true
	}
	return false
}

// Actor инициатор действия. ID = nil для гостя и системы
type Actor struct {
	Kind ActorKind
	ID   *int64
}

// CustomerActor участник программы лояльности
func CustomerActor(memberID int64) Actor {
	return Actor{Kind: ActorCustomer, ID: &memberID}
}

// MerchantActor сотрудник магазина
func MerchantActor(staffID int64) Actor {
	return Actor{Kind: ActorMerchant, ID: &staffID}
}

// GuestActor гость, подтвердивший телефон
func GuestActor() Actor {
	return Actor{Kind: ActorGuest}
}

// SystemActor автоматические действия
func SystemActor() Actor {
	return Actor{Kind: ActorSystem}
}

// ChangeType тип изменения в журнале
type ChangeType string

const (
	ChangeCreated   ChangeType = "created"
	ChangeUpdated   ChangeType = "updated"
	ChangeCancelled ChangeType = "cancelled"
	ChangeDeleted   ChangeType = "deleted"
)

// IsValid проверяет, что тип изменения известен
func (c ChangeType) IsValid() bool {
	switch c {
	case ChangeCreated, ChangeUpdated, ChangeCancelled, ChangeDeleted:
		return true
	}
	return false
}

// Snapshot JSON-снимок полей бронирования
type Snapshot map[string]any

// Value сохраняет снимок как JSONB. nil-снимок пишется как NULL
func (s Snapshot) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan читает JSONB
func (s *Snapshot) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("snapshot: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.Join(errors.New("snapshot: invalid json"), err)
	}
	*s = m
	return nil
}

// Diff возвращает имена полей, которые отличаются в двух снимках
func (s Snapshot) Diff(other Snapshot) []string {
	var changed []string
	seen := make(map[string]struct{}, len(s))
	for k, v := range s {
		seen[k] = struct{}{}
		if fmt.Sprint(v) != fmt.Sprint(other[k]) {
			changed = append(changed, k)
		}
	}
	for k := range other {
		if _, ok := seen[k]; !ok {
			changed = append(changed, k)
		}
	}
	return changed
}

// ChangeLogEntry неизменяемая запись журнала изменений бронирования
// Запись не ссылается на бронирование внешним ключом и переживает его удаление
type ChangeLogEntry struct {
	ID            int64
	ReservationID int64
	Reference     string
	StoreID       int64
	ChangeType    ChangeType
	ActorKind     ActorKind
	ActorID       *int64
	OldValues     Snapshot
	NewValues     Snapshot
	Note          *string
	CreatedAt     time.Time
}

// NewChangeLogEntry собирает запись из снимков до и после
func NewChangeLogEntry(r *Reservation, changeType ChangeType, actor Actor, oldValues, newValues Snapshot, note *string) *ChangeLogEntry {
	return &ChangeLogEntry{
		ReservationID: r.ID,
		Reference:     r.Reference,
		StoreID:       r.StoreID,
		ChangeType:    changeType,
		ActorKind:     actor.Kind,
		ActorID:       actor.ID,
		OldValues:     oldValues,
		NewValues:     newValues,
		Note:          note,
	}
}
