package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// Config параметры выдачи слотов
type Config struct {
	MaxAdvanceDays int // 0 = без ограничения
}

// Request модель запроса на получение окон с загрузкой
type Request struct {
	StoreID int64
	Date    time.Time // Дата (без времени)
}

// Response модель ответа со списком окон на дату
type Response struct {
	StoreID int64
	Date    time.Time
	Weekday domain.Weekday
	Slots   []Slot
}

// Slot окно на дату и его загрузка
type Slot struct {
	WindowID        int64
	TimeWindow      string // строка, которую нужно передать при бронировании
	StartTime       types.TimeString
	EndTime         *types.TimeString
	MaxAggregate    int
	MaxParty        int
	CurrentBookings int
	Available       int
	IsFull          bool
}
