package auditsink

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Event сообщение аудита: одна запись журнала изменений бронирования
type Event struct {
	ID            int64           `json:"id"`
	ReservationID int64           `json:"reservationId"`
	Reference     string          `json:"reference"`
	StoreID       int64           `json:"storeId"`
	ChangeType    string          `json:"changeType"`
	ActorKind     string          `json:"actorKind"`
	ActorID       *int64          `json:"actorId,omitempty"`
	OldValues     domain.Snapshot `json:"oldValues,omitempty"`
	NewValues     domain.Snapshot `json:"newValues,omitempty"`
	Note          *string         `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// FromDomainEntry конвертирует запись журнала в событие
func FromDomainEntry(entry *domain.ChangeLogEntry) Event {
	return Event{
		ID:            entry.ID,
		ReservationID: entry.ReservationID,
		Reference:     entry.Reference,
		StoreID:       entry.StoreID,
		ChangeType:    string(entry.ChangeType),
		ActorKind:     string(entry.ActorKind),
		ActorID:       entry.ActorID,
		OldValues:     entry.OldValues,
		NewValues:     entry.NewValues,
		Note:          entry.Note,
		CreatedAt:     entry.CreatedAt.UTC(),
	}
}
