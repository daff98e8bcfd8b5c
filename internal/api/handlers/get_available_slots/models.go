package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-ReservationService/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	StoreID   int64           `json:"storeId"`
	Date      string          `json:"date"`
	DayOfWeek int             `json:"dayOfWeek"`
	DayName   string          `json:"dayName"`
	Slots     []AvailableSlot `json:"slots"`
}

// AvailableSlot окно на дату с текущей загрузкой
type AvailableSlot struct {
	WindowID        int64   `json:"windowId"`
	TimeWindow      string  `json:"timeWindow"`
	StartTime       string  `json:"startTime"`
	EndTime         *string `json:"endTime,omitempty"`
	MaxAggregate    int     `json:"maxAggregate"`
	MaxParty        int     `json:"maxParty"`
	CurrentBookings int     `json:"currentBookings"`
	Available       int     `json:"available"`
	IsFull          bool    `json:"isFull"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			WindowID:        slot.WindowID,
			TimeWindow:      slot.TimeWindow,
			StartTime:       slot.StartTime.String(),
			MaxAggregate:    slot.MaxAggregate,
			MaxParty:        slot.MaxParty,
			CurrentBookings: slot.CurrentBookings,
			Available:       slot.Available,
			IsFull:          slot.IsFull,
		}
		if slot.EndTime != nil {
			end := slot.EndTime.String()
			slots[i].EndTime = &end
		}
	}

	return &AvailableSlotsResponse{
		StoreID:   resp.StoreID,
		Date:      resp.Date.Format(domain.DateFormat),
		DayOfWeek: int(resp.Weekday),
		DayName:   resp.Weekday.String(),
		Slots:     slots,
	}
}

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(storeID int64, dateStr string) (*getAvailableSlots.Request, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	return &getAvailableSlots.Request{
		StoreID: storeID,
		Date:    date,
	}, nil
}
