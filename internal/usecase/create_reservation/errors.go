package create_reservation

import "errors"

var (
	// ErrStoreNotFound возвращается, когда магазин не найден
	ErrStoreNotFound = errors.New("create_reservation: store not found")

	// ErrStoreInactive возвращается, когда магазин не принимает бронирования
	ErrStoreInactive = errors.New("create_reservation: store is not accepting reservations")

	// ErrWindowNotFound возвращается, когда на дату нет активного окна с такой строкой
	ErrWindowNotFound = errors.New("create_reservation: no matching time window")

	// ErrInvalidDate возвращается для даты в прошлом
	ErrInvalidDate = errors.New("create_reservation: reservation date is in the past")

	// ErrDateTooFarInFuture возвращается, когда дата превышает max_advance_days
	ErrDateTooFarInFuture = errors.New("create_reservation: date is too far in the future")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_reservation: invalid input data")

	// ErrReferenceExhausted возвращается, если не удалось подобрать свободный номер бронирования
	ErrReferenceExhausted = errors.New("create_reservation: could not allocate unique reference")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_reservation: internal error")

	// errReferenceRace номер заняли между проверкой и вставкой, транзакцию нужно повторить
	errReferenceRace = errors.New("create_reservation: reference taken concurrently")
)
