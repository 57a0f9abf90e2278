package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assolink/cantine/internal/cache"
	"github.com/assolink/cantine/internal/repository"
)

func TestQuotaCache(t *testing.T) {
	day := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)

	t.Run("miss then hit", func(t *testing.T) {
		c := cache.NewQuotaCache()

		_, found := c.Get(day)
		assert.False(t, found)

		c.Set(&repository.Quota{Day: day, Capacity: 40})

		quota, found := c.Get(day)
		require.True(t, found)
		assert.Equal(t, 40, quota.Capacity)
	})

	t.Run("invalidate removes the entry", func(t *testing.T) {
		c := cache.NewQuotaCache()
		c.Set(&repository.Quota{Day: day, Capacity: 40})

		c.Invalidate(day)

		_, found := c.Get(day)
		assert.False(t, found)
	})

	t.Run("keys agree across locations", func(t *testing.T) {
		paris, err := time.LoadLocation("Europe/Paris")
		require.NoError(t, err)

		// Stored from a scanned DATE column (midnight UTC), read back with
		// the service-location day key.
		c := cache.NewQuotaCache()
		c.Set(&repository.Quota{Day: day, Capacity: 40})

		quota, found := c.Get(repository.Day(time.Date(2025, 6, 14, 12, 0, 0, 0, paris), paris))
		require.True(t, found)
		assert.Equal(t, 40, quota.Capacity)

		c.Invalidate(repository.Day(time.Date(2025, 6, 14, 12, 0, 0, 0, paris), paris))
		_, found = c.Get(day)
		assert.False(t, found)
	})

	t.Run("callers get a copy", func(t *testing.T) {
		c := cache.NewQuotaCache()
		c.Set(&repository.Quota{Day: day, Capacity: 40})

		quota, found := c.Get(day)
		require.True(t, found)
		quota.Capacity = 99

		fresh, found := c.Get(day)
		require.True(t, found)
		assert.Equal(t, 40, fresh.Capacity)
	})
}
