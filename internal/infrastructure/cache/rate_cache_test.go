package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/shared/valueobject"
)

func testQuote(subjectID, flightTypeID uuid.UUID) billing.RateQuote {
	return billing.RateQuote{
		SubjectID:     subjectID,
		SubjectKind:   billing.RateSubjectAircraft,
		FlightTypeID:  flightTypeID,
		RateExclusive: valueobject.NewMoneyEUR(decimal.RequireFromString("150")),
		Taxable:       true,
	}
}

func TestInMemoryRateCache_GetSet(t *testing.T) {
	cache := NewInMemoryRateCache()
	defer cache.Close()

	key := billing.RateCacheKey{SubjectID: uuid.New(), FlightTypeID: uuid.New()}

	t.Run("miss on empty cache", func(t *testing.T) {
		_, ok := cache.Get(key)
		assert.False(t, ok)
	})

	t.Run("hit after set", func(t *testing.T) {
		quote := testQuote(key.SubjectID, key.FlightTypeID)
		cache.Set(key, quote)

		got, ok := cache.Get(key)
		require.True(t, ok)
		assert.Equal(t, quote.SubjectID, got.SubjectID)
		assert.True(t, got.RateExclusive.Amount().Equal(decimal.RequireFromString("150")))
	})

	t.Run("distinct flight types do not collide", func(t *testing.T) {
		other := billing.RateCacheKey{SubjectID: key.SubjectID, FlightTypeID: uuid.New()}
		_, ok := cache.Get(other)
		assert.False(t, ok)
	})
}

func TestInMemoryRateCache_TTLExpiry(t *testing.T) {
	cache := NewInMemoryRateCache(WithRateCacheTTL(10 * time.Millisecond))
	defer cache.Close()

	key := billing.RateCacheKey{SubjectID: uuid.New(), FlightTypeID: uuid.New()}
	cache.Set(key, testQuote(key.SubjectID, key.FlightTypeID))

	_, ok := cache.Get(key)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	_, ok = cache.Get(key)
	assert.False(t, ok, "expired quote should be a miss")
	assert.Equal(t, 0, cache.Count(), "expired entry is removed on read")
}

func TestInMemoryRateCache_Invalidate(t *testing.T) {
	cache := NewInMemoryRateCache()
	defer cache.Close()

	key := billing.RateCacheKey{SubjectID: uuid.New(), FlightTypeID: uuid.New()}
	other := billing.RateCacheKey{SubjectID: uuid.New(), FlightTypeID: uuid.New()}
	cache.Set(key, testQuote(key.SubjectID, key.FlightTypeID))
	cache.Set(other, testQuote(other.SubjectID, other.FlightTypeID))

	cache.Invalidate(key)

	_, ok := cache.Get(key)
	assert.False(t, ok)
	_, ok = cache.Get(other)
	assert.True(t, ok, "other keys survive single invalidation")
}

func TestInMemoryRateCache_InvalidateAll(t *testing.T) {
	cache := NewInMemoryRateCache()
	defer cache.Close()

	for i := 0; i < 5; i++ {
		key := billing.RateCacheKey{SubjectID: uuid.New(), FlightTypeID: uuid.New()}
		cache.Set(key, testQuote(key.SubjectID, key.FlightTypeID))
	}
	require.Equal(t, 5, cache.Count())

	cache.InvalidateAll()
	assert.Equal(t, 0, cache.Count())
}

func TestInMemoryRateCache_Stats(t *testing.T) {
	cache := NewInMemoryRateCache()
	defer cache.Close()

	key := billing.RateCacheKey{SubjectID: uuid.New(), FlightTypeID: uuid.New()}

	cache.Get(key) // miss
	cache.Set(key, testQuote(key.SubjectID, key.FlightTypeID))
	cache.Get(key) // hit

	hits, misses := cache.GetStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestInMemoryRateCache_Cleanup(t *testing.T) {
	cache := NewInMemoryRateCache(WithRateCacheTTL(10 * time.Millisecond))
	defer cache.Close()

	for i := 0; i < 3; i++ {
		key := billing.RateCacheKey{SubjectID: uuid.New(), FlightTypeID: uuid.New()}
		cache.Set(key, testQuote(key.SubjectID, key.FlightTypeID))
	}
	require.Equal(t, 3, cache.Count())

	time.Sleep(20 * time.Millisecond)
	cache.doCleanup()

	assert.Equal(t, 0, cache.Count())
}

func TestInMemoryRateCache_Close(t *testing.T) {
	cache := NewInMemoryRateCache()

	assert.NoError(t, cache.Close())
	// Multiple closes should be safe
	assert.NoError(t, cache.Close())
}
