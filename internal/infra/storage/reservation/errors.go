package reservation

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("reservation.repository: reservation not found")

	// ErrReferenceTaken возвращается, когда номер бронирования уже занят
	ErrReferenceTaken = errors.New("reservation.repository: reference already taken")

	// ErrNoTransaction возвращается, если блокировка слота запрошена вне транзакции
	ErrNoTransaction = errors.New("reservation.repository: slot lock requires transaction")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reservation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reservation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("reservation.repository: failed to scan row")
)
