package timewindows

import (
	"errors"
	"fmt"
)

var (
	// ErrWindowNotFound возвращается, когда активное окно с такой строкой не найдено
	ErrWindowNotFound = errors.New("time window not found")

	// ErrWindowInUse возвращается, если окно нельзя менять из-за активных бронирований
	ErrWindowInUse = errors.New("active reservations exist for this time window")

	// ErrWindowExists возвращается, если окно с таким днём и началом уже есть
	ErrWindowExists = errors.New("time window with this day and start time already exists")

	// ErrStoreNotFound возвращается, когда магазин не найден
	ErrStoreNotFound = errors.New("store not found")

	// ErrAccessDenied возвращается, когда сотрудник не относится к магазину
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("timewindows: internal error")
)

// ConflictError изменение окна заблокировано активными бронированиями на будущие даты
type ConflictError struct {
	WindowID int64
	Label    string
	Count    int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: window id=%d (%s) has %d active reservations", ErrWindowInUse, e.WindowID, e.Label, e.Count)
}

func (e *ConflictError) Unwrap() error {
	return ErrWindowInUse
}
