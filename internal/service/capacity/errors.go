package capacity

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded возвращается, когда компания не помещается в окно
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("capacity: internal error")
)

// Bound какой лимит превышен
type Bound string

const (
	BoundParty     Bound = "party"
	BoundAggregate Bound = "aggregate"
)

// ExceededError подробности отказа: какой лимит и сколько мест осталось
type ExceededError struct {
	Bound       Bound
	Limit       int
	CurrentLoad int
	Requested   int
	Remaining   int
}

func (e *ExceededError) Error() string {
	if e.Bound == BoundParty {
		return fmt.Sprintf("%s: party of %d exceeds max party size %d", ErrCapacityExceeded, e.Requested, e.Limit)
	}
	return fmt.Sprintf("%s: %d booked + %d requested > %d, only %d seats left",
		ErrCapacityExceeded, e.CurrentLoad, e.Requested, e.Limit, e.Remaining)
}

func (e *ExceededError) Unwrap() error {
	return ErrCapacityExceeded
}
