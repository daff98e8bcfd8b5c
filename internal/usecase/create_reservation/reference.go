package create_reservation

import (
	"crypto/rand"
	"io"
	"strings"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// ReferenceGenerator выдаёт номер бронирования для даты
type ReferenceGenerator func(date time.Time) (string, error)

// NewReference номер вида R20261016-K7M2QX из криптостойкого источника
func NewReference(date time.Time) (string, error) {
	return newReferenceFrom(rand.Reader, date)
}

func newReferenceFrom(src io.Reader, date time.Time) (string, error) {
	buf := make([]byte, domain.ReferenceSuffixLength)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(domain.ReferencePrefix) + len(domain.ReferenceDateFormat) + 1 + len(buf))
	b.WriteString(domain.ReferencePrefix)
	b.WriteString(date.Format(domain.ReferenceDateFormat))
	b.WriteByte('-')

	// длина алфавита 32 делит 256 без остатка, распределение равномерное
	alphabet := domain.ReferenceAlphabet
	for _, v := range buf {
		b.WriteByte(alphabet[int(v)%len(alphabet)])
	}
	return b.String(), nil
}
