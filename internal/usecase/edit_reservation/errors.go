package edit_reservation

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("edit_reservation: reservation not found")

	// ErrStoreNotFound возвращается, когда магазин бронирования не найден
	ErrStoreNotFound = errors.New("edit_reservation: store not found")

	// ErrWindowNotFound возвращается, когда на дату нет активного окна с такой строкой
	ErrWindowNotFound = errors.New("edit_reservation: no matching time window")

	// ErrForbidden возвращается, когда у запроса нет прав на бронирование
	ErrForbidden = errors.New("edit_reservation: access denied")

	// ErrUnauthorized возвращается, если запрос не несёт ни одной идентичности
	ErrUnauthorized = errors.New("edit_reservation: identity required")

	// ErrInvalidState возвращается, если бронирование нельзя редактировать в текущем статусе
	ErrInvalidState = errors.New("edit_reservation: reservation status does not allow editing")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("edit_reservation: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("edit_reservation: internal error")
)
