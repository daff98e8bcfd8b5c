package auditsink

import "errors"

var (
	// ErrMarshal возвращается, если запись журнала не удалось сериализовать
	ErrMarshal = errors.New("auditsink: failed to marshal event")

	// ErrPublish возвращается при ошибке записи в топик
	ErrPublish = errors.New("auditsink: failed to publish events")
)
