package tracking

import (
	"sync"
	"testing"
	"time"

	"grocery-delivery/models/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusPtr(s order.DeliveryStatus) *order.DeliveryStatus { return &s }

func TestCacheMergeCreatesRecord(t *testing.T) {
	cache := NewUpdateCache()

	_, ok := cache.Get(7)
	assert.False(t, ok)

	update := cache.Merge(7, UpdatePatch{Status: statusPtr(order.StatusAssigned)})
	assert.Equal(t, uint(7), update.OrderID)
	assert.Equal(t, order.StatusAssigned, update.Status)
	assert.False(t, update.LastUpdate.IsZero())

	got, ok := cache.Get(7)
	require.True(t, ok)
	assert.Equal(t, order.StatusAssigned, got.Status)
}

func TestCacheMergeIsLastWriteWins(t *testing.T) {
	cache := NewUpdateCache()

	cache.Merge(1, UpdatePatch{Location: &GeoState{Latitude: 28.61, Longitude: 77.20}})
	cache.Merge(1, UpdatePatch{Location: &GeoState{Latitude: 28.63, Longitude: 77.20}})

	got, ok := cache.Get(1)
	require.True(t, ok)
	require.NotNil(t, got.CurrentLocation)
	assert.Equal(t, 28.63, got.CurrentLocation.Latitude)
}

func TestCacheMergeLeavesUnpatchedFields(t *testing.T) {
	cache := NewUpdateCache()

	cache.Merge(1, UpdatePatch{
		Status:  statusPtr(order.StatusInTransit),
		Partner: &PartnerSummary{Name: "Ravi", Mobile: "9800000001"},
	})
	cache.Merge(1, UpdatePatch{Location: &GeoState{Latitude: 28.61, Longitude: 77.20}})

	got, ok := cache.Get(1)
	require.True(t, ok)
	assert.Equal(t, order.StatusInTransit, got.Status)
	require.NotNil(t, got.Partner)
	assert.Equal(t, "Ravi", got.Partner.Name)
	require.NotNil(t, got.CurrentLocation)
}

func TestCacheIssuesAccumulate(t *testing.T) {
	cache := NewUpdateCache()

	cache.Merge(1, UpdatePatch{Issue: &IssueEntry{Type: "traffic", TicketID: "t-1"}})
	cache.Merge(1, UpdatePatch{Issue: &IssueEntry{Type: "vehicle_breakdown", TicketID: "t-2"}})

	got, _ := cache.Get(1)
	require.Len(t, got.Issues, 2)
	assert.Equal(t, "t-1", got.Issues[0].TicketID)
	assert.Equal(t, "t-2", got.Issues[1].TicketID)
}

func TestCacheIssuesListReplaces(t *testing.T) {
	cache := NewUpdateCache()

	cache.Merge(1, UpdatePatch{Issue: &IssueEntry{Type: "traffic", TicketID: "stale"}})
	cache.Merge(1, UpdatePatch{Issues: []IssueEntry{
		{Type: "traffic", TicketID: "t-1"},
		{Type: "vehicle_breakdown", TicketID: "t-2"},
	}})

	got, _ := cache.Get(1)
	require.Len(t, got.Issues, 2)
	assert.Equal(t, "t-1", got.Issues[0].TicketID)
	assert.Equal(t, "t-2", got.Issues[1].TicketID)
}

func TestCacheGetReturnsCopy(t *testing.T) {
	cache := NewUpdateCache()
	cache.Merge(1, UpdatePatch{Location: &GeoState{Latitude: 10, Longitude: 20}})

	got, _ := cache.Get(1)
	got.CurrentLocation.Latitude = 99
	got.Issues = append(got.Issues, IssueEntry{TicketID: "rogue"})

	again, _ := cache.Get(1)
	assert.Equal(t, 10.0, again.CurrentLocation.Latitude)
	assert.Empty(t, again.Issues)
}

func TestCacheEvict(t *testing.T) {
	cache := NewUpdateCache()
	cache.Merge(1, UpdatePatch{Status: statusPtr(order.StatusDelivered)})

	cache.Evict(1)
	_, ok := cache.Get(1)
	assert.False(t, ok)

	// Evicting an absent key is a no-op
	cache.Evict(1)
}

func TestCacheScheduledEviction(t *testing.T) {
	cache := NewUpdateCache()
	cache.Merge(1, UpdatePatch{Status: statusPtr(order.StatusDelivered)})

	cache.ScheduleEviction(1, 20*time.Millisecond)

	// Still present inside the grace window
	_, ok := cache.Get(1)
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := cache.Get(1)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestCacheSingleRecordPerOrderUnderConcurrentMerges(t *testing.T) {
	cache := NewUpdateCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cache.Merge(42, UpdatePatch{
				Location: &GeoState{Latitude: float64(i), Longitude: 77},
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, cache.Len())
	got, ok := cache.Get(42)
	require.True(t, ok)
	assert.NotNil(t, got.CurrentLocation)
}
