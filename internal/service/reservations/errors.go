package reservations

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrStoreNotFound возвращается, когда магазин не найден
	ErrStoreNotFound = errors.New("store not found")

	// ErrForbidden возвращается, когда у запроса нет прав на бронирование
	ErrForbidden = errors.New("access denied")

	// ErrUnauthorized возвращается, если запрос не несёт ни одной идентичности
	ErrUnauthorized = errors.New("identity required")

	// ErrInvalidState возвращается при недопустимом переходе статуса
	ErrInvalidState = errors.New("reservation status does not allow this action")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("reservations: internal error")
)
