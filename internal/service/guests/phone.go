package guests

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"unicode"
)

// NormalizePhone убирает только разделители (пробелы, дефисы, скобки, точки) и приводит
// международный формат +886 9XXXXXXXX к 09XXXXXXXX. Прочие символы остаются, их отсекает шаблон
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range strings.TrimSpace(phone) {
		if unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '-', '(', ')', '.':
			continue
		}
		b.WriteRune(r)
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "+886"):
		return "0" + strings.TrimPrefix(digits[4:], "0")
	case strings.HasPrefix(digits, "886") && len(digits) == 12:
		return "0" + digits[3:]
	}
	return digits
}

// DeriveToken односторонний токен номера: hex(SHA-256(нормализованный номер))
// Секрета нет, токен используется только для сравнения на равенство
func DeriveToken(normalizedPhone string) string {
	sum := sha256.Sum256([]byte(normalizedPhone))
	return hex.EncodeToString(sum[:])
}

// tokensEqual сравнение за постоянное время
func tokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
