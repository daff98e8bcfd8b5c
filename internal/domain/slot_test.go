package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

func TestTimeSlotAvailability(t *testing.T) {
	end := types.MustTimeString("20:00")
	slot := &TimeSlotAvailability{
		StartTime:       types.MustTimeString("18:00"),
		EndTime:         &end,
		MaxAggregate:    20,
		MaxParty:        8,
		CurrentBookings: 14,
	}

	assert.Equal(t, "18:00-20:00", slot.Label())
	assert.Equal(t, 6, slot.Available())
	assert.False(t, slot.IsFull())
	assert.True(t, slot.Fits(6))
	assert.False(t, slot.Fits(7))
	assert.InDelta(t, 70.0, slot.OccupancyRate(), 0.001)

	slot.CurrentBookings = 25
	assert.Equal(t, 0, slot.Available())
	assert.True(t, slot.IsFull())
	assert.InDelta(t, 100.0, slot.OccupancyRate(), 0.001)
}
