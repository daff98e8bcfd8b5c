package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

var (
	// ErrInvalidWeekday возвращается при некорректном дне недели
	ErrInvalidWeekday = errors.New("invalid day of week")

	// ErrInvalidTimeRange возвращается, если конец окна не позже начала (кроме 00:00)
	ErrInvalidTimeRange = errors.New("end time must be after start time or 00:00")

	// ErrInvalidCapacity возвращается при неположительной вместимости
	ErrInvalidCapacity = errors.New("capacity limits must be positive")

	// ErrPartyExceedsAggregate возвращается, если лимит одной брони больше общего лимита окна
	ErrPartyExceedsAggregate = errors.New("max party size exceeds max aggregate headcount")

	// ErrInvalidWindowSpec возвращается при некорректной строке окна ("HH:MM" или "HH:MM-HH:MM")
	ErrInvalidWindowSpec = errors.New("invalid time window string")
)

// Weekday день недели по ISO 8601: 1 = понедельник ... 7 = воскресенье
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"", "mon", "tue", "wed", "thu", "fri", "sat", "sun"}

var weekdayFullNames = [...]string{"", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// WeekdayOf возвращает ISO день недели для даты
func WeekdayOf(date time.Time) Weekday {
	wd := date.Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

// ParseWeekday принимает "mon".."sun", полные английские названия или число 1..7
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		w := Weekday(n)
		if !w.IsValid() {
			return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
		}
		return w, nil
	}
	for i := Monday; i <= Sunday; i++ {
		if s == weekdayNames[i] || s == weekdayFullNames[i] {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// IsValid проверяет диапазон 1..7
func (w Weekday) IsValid() bool {
	return w >= Monday && w <= Sunday
}

func (w Weekday) String() string {
	if !w.IsValid() {
		return fmt.Sprintf("weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// TimeWindow повторяющееся еженедельное окно бронирования магазина
type TimeWindow struct {
	ID           int64
	StoreID      int64
	DayOfWeek    Weekday
	StartTime    types.TimeString
	EndTime      *types.TimeString // nil = открытое окно (до полуночи)
	MaxAggregate int               // суммарная вместимость окна на одну дату
	MaxParty     int               // максимальный размер одной брони
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Spec возвращает строку окна в том виде, в каком она хранится в бронированиях
func (w *TimeWindow) Spec() WindowSpec {
	return WindowSpec{Start: w.StartTime, End: w.EndTime}
}

// Label "HH:MM" или "HH:MM-HH:MM"
func (w *TimeWindow) Label() string {
	return w.Spec().Label()
}

// RunsPastMidnight возвращает true, если окно заканчивается в 00:00
func (w *TimeWindow) RunsPastMidnight() bool {
	return w.EndTime != nil && w.EndTime.IsMidnight()
}

// Validate проверяет инварианты окна
func (w *TimeWindow) Validate() error {
	if !w.DayOfWeek.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidWeekday, w.DayOfWeek)
	}
	if err := w.Spec().Validate(); err != nil {
		return err
	}
	if w.MaxAggregate < 1 || w.MaxParty < 1 {
		return ErrInvalidCapacity
	}
	if w.MaxParty > w.MaxAggregate {
		return fmt.Errorf("%w: %d > %d", ErrPartyExceedsAggregate, w.MaxParty, w.MaxAggregate)
	}
	return nil
}

// Matches точное совпадение начала и конца (без попадания "внутрь" окна)
func (w *TimeWindow) Matches(spec WindowSpec) bool {
	return w.Label() == spec.Label()
}

// WindowSpec разобранная строка окна из бронирования
type WindowSpec struct {
	Start types.TimeString
	End   *types.TimeString
}

// ParseWindowSpec разбирает "HH:MM" или "HH:MM-HH:MM"
func ParseWindowSpec(s string) (WindowSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return WindowSpec{}, fmt.Errorf("%w: empty", ErrInvalidWindowSpec)
	}

	startPart, endPart, hasEnd := strings.Cut(s, "-")

	start, err := types.NewTimeStringFromString(startPart)
	if err != nil {
		return WindowSpec{}, fmt.Errorf("%w: %q", ErrInvalidWindowSpec, s)
	}

	spec := WindowSpec{Start: start}
	if !hasEnd {
		return spec, nil
	}

	end, err := types.NewTimeStringFromString(endPart)
	if err != nil {
		return WindowSpec{}, fmt.Errorf("%w: %q", ErrInvalidWindowSpec, s)
	}
	spec.End = &end

	if err := spec.Validate(); err != nil {
		return WindowSpec{}, err
	}
	return spec, nil
}

// Validate конец строго позже начала, либо 00:00 (окно идёт до полуночи)
func (s WindowSpec) Validate() error {
	if err := s.Start.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWindowSpec, err)
	}
	if s.End == nil {
		return nil
	}
	if err := s.End.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWindowSpec, err)
	}
	if s.End.IsMidnight() {
		if s.Start.IsMidnight() {
			return fmt.Errorf("%w: %s-%s", ErrInvalidTimeRange, s.Start, *s.End)
		}
		return nil
	}
	if !s.End.IsAfter(s.Start) {
		return fmt.Errorf("%w: %s-%s", ErrInvalidTimeRange, s.Start, *s.End)
	}
	return nil
}

// Label каноническое представление строки окна
func (s WindowSpec) Label() string {
	if s.End == nil {
		return s.Start.String()
	}
	return s.Start.String() + "-" + s.End.String()
}
