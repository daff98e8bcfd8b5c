package get_available_slots

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// buildSlots собирает активные окна дня с загрузкой, по времени начала
// Бронь учитывается в окне, строка которого совпадает со строкой бронирования
func buildSlots(windows []*domain.TimeWindow, loads map[string]int, date time.Time) []Slot {
	weekday := domain.WeekdayOf(date)
	slots := make([]Slot, 0, len(windows))

	for _, w := range windows {
		if !w.IsActive || w.DayOfWeek != weekday {
			continue
		}

		availability := &domain.TimeSlotAvailability{
			WindowID:        w.ID,
			Date:            date,
			StartTime:       w.StartTime,
			EndTime:         w.EndTime,
			MaxAggregate:    w.MaxAggregate,
			MaxParty:        w.MaxParty,
			CurrentBookings: loads[w.Label()],
		}

		slots = append(slots, Slot{
			WindowID:        w.ID,
			TimeWindow:      availability.Label(),
			StartTime:       w.StartTime,
			EndTime:         w.EndTime,
			MaxAggregate:    w.MaxAggregate,
			MaxParty:        w.MaxParty,
			CurrentBookings: availability.CurrentBookings,
			Available:       availability.Available(),
			IsFull:          availability.IsFull(),
		})
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].StartTime == slots[j].StartTime {
			return slots[i].TimeWindow < slots[j].TimeWindow
		}
		return slots[i].StartTime.IsBefore(slots[j].StartTime)
	})

	return slots
}
