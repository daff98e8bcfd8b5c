// Package pgerrors классифицирует ошибки PostgreSQL (lib/pq) по SQLSTATE
package pgerrors

import (
	"errors"

	"github.com/lib/pq"
)

// Коды SQLSTATE, используемые сервисом
const (
	CodeUniqueViolation      = "23505"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeLockNotAvailable     = "55P03"
)

// Code возвращает SQLSTATE из цепочки ошибок или пустую строку
func Code(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation возвращает true при нарушении уникального индекса
func IsUniqueViolation(err error) bool {
	return Code(err) == CodeUniqueViolation
}

// IsTransient возвращает true для ошибок, после которых транзакцию можно повторить:
// конфликт сериализации, deadlock, таймаут ожидания блокировки
func IsTransient(err error) bool {
	switch Code(err) {
	case CodeSerializationFailure, CodeDeadlockDetected, CodeLockNotAvailable:
		return true
	default:
		return false
	}
}

// Constraint возвращает имя нарушенного ограничения, если оно известно
func Constraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
