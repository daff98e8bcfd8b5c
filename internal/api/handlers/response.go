package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

const (
	maxBodyBytes = 1 << 20

	invalidInputPrefix = "invalid input data: "
)

// ErrorResponse тело ответа с ошибкой
// Detail поясняет, какое поле не прошло проверку
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// CapacityErrorResponse отказ по вместимости
type CapacityErrorResponse struct {
	Error       string `json:"error"`
	Bound       string `json:"bound"`
	Limit       int    `json:"limit"`
	CurrentLoad int    `json:"currentLoad"`
	Requested   int    `json:"requested"`
	Remaining   int    `json:"remaining"`
}

// ConflictErrorResponse окно нельзя изменить, пока на него есть активные брони
type ConflictErrorResponse struct {
	Error              string `json:"error"`
	ActiveReservations int    `json:"activeReservations"`
}

// DecodeJSON разбирает тело запроса. Неизвестные поля и лишние данные после объекта запрещены
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}

// DecodeOptionalJSON как DecodeJSON, но пустое тело не ошибка
func DecodeOptionalJSON(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := DecodeJSON(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// PathInt64 положительное число из переменной пути
func PathInt64(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// RespondJSON пишет JSON ответ
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// RespondError пишет ошибку с заданным статусом
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message})
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

// RespondValidationError 400 с описанием поля из ошибки, обёрнутой вокруг sentinel
func RespondValidationError(w http.ResponseWriter, message string, err, sentinel error) {
	RespondJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Detail: ValidationDetail(err, sentinel)})
}

// ValidationDetail текст после "<sentinel>: " без повторных префиксов вложенных ошибок проверки
func ValidationDetail(err, sentinel error) string {
	if err == nil || sentinel == nil {
		return ""
	}
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	i := strings.Index(msg, prefix)
	if i < 0 {
		return ""
	}
	msg = msg[i+len(prefix):]
	for strings.HasPrefix(msg, invalidInputPrefix) {
		msg = strings.TrimPrefix(msg, invalidInputPrefix)
	}
	return msg
}

func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusUnauthorized, message)
}

func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, message)
}

func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

func RespondConflict(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusConflict, message)
}

// RespondUnavailable транзакция не прошла после всех повторов
func RespondUnavailable(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	RespondError(w, http.StatusServiceUnavailable, "сервис временно перегружен, повторите запрос")
}

func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
}
