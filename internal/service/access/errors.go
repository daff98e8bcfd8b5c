package access

import "errors"

var (
	// ErrForbidden возвращается, когда у запроса нет прав на бронирование
	ErrForbidden = errors.New("access: forbidden")

	// ErrNoIdentity возвращается, если в запросе нет ни сотрудника, ни участника, ни телефона
	ErrNoIdentity = errors.New("access: no identity supplied")

	// ErrInvalidPhone возвращается при некорректном телефоне гостя
	ErrInvalidPhone = errors.New("access: invalid phone number")

	// ErrStoreNotFound возвращается, когда магазин не найден
	ErrStoreNotFound = errors.New("access: store not found")

	// ErrInternal возвращается при внутренних ошибках
	ErrInternal = errors.New("access: internal error")
)
