package get_available_slots

import "errors"

var (
	// ErrStoreNotFound возвращается, когда магазин не найден
	ErrStoreNotFound = errors.New("store not found")

	// ErrInvalidDate возвращается для даты в прошлом
	ErrInvalidDate = errors.New("date is in the past")

	// ErrDateTooFarInFuture возвращается, когда дата превышает max_advance_days
	ErrDateTooFarInFuture = errors.New("date is too far in the future")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_available_slots: internal error")
)
