package guests

import "errors"

var (
	// ErrInvalidPhone возвращается, если номер не соответствует шаблону
	ErrInvalidPhone = errors.New("guests: invalid phone number")

	// ErrNoGuestReservations возвращается, когда по номеру нет гостевых бронирований
	ErrNoGuestReservations = errors.New("guests: no reservations found for phone")

	// ErrForbidden возвращается, если телефон не совпадает с сохранённым токеном
	ErrForbidden = errors.New("guests: phone does not match reservation")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("guests: internal error")
)
