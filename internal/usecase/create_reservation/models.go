package create_reservation

import "time"

// Config параметры создания бронирований
type Config struct {
	MaxAdvanceDays    int // 0 = без ограничения
	ReferenceAttempts int
}

// Request модель запроса на создание бронирования
// MemberID = nil означает гостевое бронирование
type Request struct {
	StoreID        int64
	MemberID       *int64
	ContactName    *string
	ContactPhone   *string
	ContactEmail   *string
	ContactGender  *string
	Date           time.Time // Дата бронирования (без времени)
	TimeWindow     string    // "18:00" или "18:00-20:00"
	Adults         int
	Children       int
	SpecialRequest *string
}

// contacts итоговые контакты после автозаполнения
type contacts struct {
	name   string
	phone  string
	email  *string
	gender *string
}
