package domain

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// TimeSlotAvailability загрузка одного окна на конкретную дату
type TimeSlotAvailability struct {
	WindowID        int64
	Date            time.Time
	StartTime       types.TimeString
	EndTime         *types.TimeString
	MaxAggregate    int
	MaxParty        int
	CurrentBookings int // сумма гостей активных бронирований
}

// Label строка окна, которую клиент передаёт при бронировании
func (s *TimeSlotAvailability) Label() string {
	return WindowSpec{Start: s.StartTime, End: s.EndTime}.Label()
}

// Available оставшаяся вместимость, не меньше нуля
func (s *TimeSlotAvailability) Available() int {
	if left := s.MaxAggregate - s.CurrentBookings; left > 0 {
		return left
	}
	return 0
}

// IsFull возвращает true, если мест не осталось
func (s *TimeSlotAvailability) IsFull() bool {
	return s.Available() == 0
}

// Fits проверяет, поместится ли компания заданного размера
func (s *TimeSlotAvailability) Fits(headcount int) bool {
	return headcount <= s.MaxParty && headcount <= s.Available()
}

// OccupancyRate процент заполнения (0-100)
func (s *TimeSlotAvailability) OccupancyRate() float64 {
	if s.MaxAggregate == 0 {
		return 0
	}
	return float64(min(s.CurrentBookings, s.MaxAggregate)) / float64(s.MaxAggregate) * 100
}
