package domain

// Значения по умолчанию
const (
	DefaultGuestLookupDays    = 30
	DefaultReferenceAttempts  = 5
	DefaultMaxAdvanceDays     = 0 // 0 = без ограничения
	DefaultPhonePattern       = `^09\d{8}$`
	DefaultLookupTokenMinutes = 15
)

// Константы бизнес-валидации
const (
	MinAdults                   = 1
	MinChildren                 = 0
	MaxContactNameLength        = 100
	MaxContactEmailLength       = 254
	MaxSpecialRequestLength     = 500
	MaxCancellationReasonLength = 500
	MaxChangeNoteLength         = 500
)

// Формат номера бронирования: R + YYYYMMDD + "-" + 6 символов
const (
	ReferencePrefix       = "R"
	ReferenceDateFormat   = "20060102"
	ReferenceSuffixLength = 6
	ReferenceAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // без 0/O и 1/I
)

// Форматы времени
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses статусы, которые занимают вместимость окна
var ActiveStatuses = []ReservationStatus{
	StatusPending,
	StatusConfirmed,
}

// TerminalStatuses статусы, из которых нет переходов
var TerminalStatuses = []ReservationStatus{
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}

// AllStatuses все статусы бронирования (порядок используется в статистике)
var AllStatuses = []ReservationStatus{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}
