package get_store_reservations

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToServiceRequest(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		req, err := ToServiceRequest(1, 100, url.Values{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), req.StoreID)
		assert.Equal(t, int64(100), req.StaffID)
		assert.Equal(t, uint64(defaultLimit), req.Limit)
		assert.Zero(t, req.Offset)
		assert.Nil(t, req.StartDate)
		assert.Nil(t, req.Status)
	})

	t.Run("single date expands to range", func(t *testing.T) {
		req, err := ToServiceRequest(1, 100, url.Values{"date": {"2026-10-16"}, "status": {"pending"}, "timeWindow": {"18:00-20:00"}})
		require.NoError(t, err)
		assert.Equal(t, "2026-10-16", *req.StartDate)
		assert.Equal(t, "2026-10-16", *req.EndDate)
		assert.Equal(t, "pending", *req.Status)
		assert.Equal(t, "18:00-20:00", *req.TimeWindow)
	})

	t.Run("explicit range wins over date", func(t *testing.T) {
		req, err := ToServiceRequest(1, 100, url.Values{"date": {"2026-10-16"}, "startDate": {"2026-10-01"}})
		require.NoError(t, err)
		assert.Equal(t, "2026-10-01", *req.StartDate)
		assert.Nil(t, req.EndDate)
	})

	t.Run("paging", func(t *testing.T) {
		req, err := ToServiceRequest(1, 100, url.Values{"limit": {"20"}, "offset": {"40"}})
		require.NoError(t, err)
		assert.Equal(t, uint64(20), req.Limit)
		assert.Equal(t, uint64(40), req.Offset)
	})

	for _, q := range []url.Values{
		{"limit": {"0"}},
		{"limit": {"501"}},
		{"limit": {"-1"}},
		{"offset": {"x"}},
	} {
		_, err := ToServiceRequest(1, 100, q)
		assert.Error(t, err, q.Encode())
	}
}
