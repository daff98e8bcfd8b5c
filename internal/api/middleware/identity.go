package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Заголовки, которые выставляет шлюз после аутентификации
const (
	HeaderMemberID = "X-Member-ID"
	HeaderStaffID  = "X-Staff-ID"
)

const (
	msgMemberRequired = "требуется авторизация участника"
	msgStaffRequired  = "требуется авторизация сотрудника"
	msgInvalidHeader  = "некорректный заголовок идентификации"
)

type contextKey string

const (
	memberIDKey contextKey = "member_id"
	staffIDKey  contextKey = "staff_id"
)

// Identity переносит X-Member-ID и X-Staff-ID в контекст запроса
// Отсутствующий заголовок не ошибка: гость приходит без идентичности
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		memberID, ok, err := headerID(r, HeaderMemberID)
		if err != nil {
			handlers.RespondBadRequest(w, msgInvalidHeader)
			return
		}
		if ok {
			ctx = context.WithValue(ctx, memberIDKey, memberID)
		}

		staffID, ok, err := headerID(r, HeaderStaffID)
		if err != nil {
			handlers.RespondBadRequest(w, msgInvalidHeader)
			return
		}
		if ok {
			ctx = context.WithValue(ctx, staffIDKey, staffID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireMember пропускает только запросы участника
func RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetMemberID(r.Context()); !ok {
			handlers.RespondUnauthorized(w, msgMemberRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff пропускает только запросы сотрудника магазина
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetStaffID(r.Context()); !ok {
			handlers.RespondUnauthorized(w, msgStaffRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetMemberID ID участника из контекста
func GetMemberID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(memberIDKey).(int64)
	return id, ok
}

// GetStaffID ID сотрудника из контекста
func GetStaffID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(staffIDKey).(int64)
	return id, ok
}

// RequesterFrom идентичность запроса без телефона гостя; телефон добавляет хендлер из тела
func RequesterFrom(ctx context.Context) domain.Requester {
	var who domain.Requester
	if id, ok := GetMemberID(ctx); ok {
		who.MemberID = &id
	}
	if id, ok := GetStaffID(ctx); ok {
		who.StaffID = &id
	}
	return who
}

func headerID(r *http.Request, name string) (int64, bool, error) {
	raw := r.Header.Get(name)
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, strconv.ErrSyntax
	}
	return id, true, nil
}
