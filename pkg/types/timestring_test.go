package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeString
		wantErr bool
	}{
		{"valid", "18:00", "18:00", false},
		{"database format with seconds", "09:30:00", "09:30", false},
		{"midnight", "00:00", "00:00", false},
		{"hour out of range", "24:00", "", true},
		{"minute out of range", "10:60", "", true},
		{"missing colon", "1800", "", true},
		{"single digit hour", "9:00", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTimeStringFromString(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeString_Arithmetic(t *testing.T) {
	start := MustTimeString("18:00")

	end, err := start.AddMinutes(120)
	require.NoError(t, err)
	assert.Equal(t, TimeString("20:00"), end)
	assert.True(t, start.IsBefore(end))
	assert.True(t, end.IsAfter(start))

	_, err = start.AddMinutes(6 * 60)
	assert.ErrorIs(t, err, ErrTimeOverflow)
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString

	require.NoError(t, ts.Scan([]byte("12:15:00")))
	assert.Equal(t, TimeString("12:15"), ts)

	require.NoError(t, ts.Scan(time.Date(2000, 1, 1, 7, 5, 0, 0, time.UTC)))
	assert.Equal(t, TimeString("07:05"), ts)

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())

	assert.Error(t, ts.Scan(42))
}

func TestTimeString_On(t *testing.T) {
	date := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	got := MustTimeString("19:45").On(date)
	assert.Equal(t, time.Date(2026, 10, 16, 19, 45, 0, 0, time.UTC), got)
}
