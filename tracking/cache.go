package tracking

import (
	"sync"
	"time"

	"grocery-delivery/models/order"
)

// GeoState is the last known position reported by the delivery partner
type GeoState struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed,omitempty"`
	Heading   float64 `json:"heading,omitempty"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// PartnerSummary is the partner info exposed to tracking consumers
type PartnerSummary struct {
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Vehicle string `json:"vehicle,omitempty"`
}

// IssueEntry is one reported delivery problem
type IssueEntry struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	TicketID    string    `json:"ticket_id"`
	ReportedAt  time.Time `json:"reported_at"`
}

// DeliveryUpdate is the cached live state of one order's delivery
type DeliveryUpdate struct {
	OrderID          uint                 `json:"order_id"`
	Status           order.DeliveryStatus `json:"status"`
	CurrentLocation  *GeoState            `json:"current_location,omitempty"`
	DistanceKM       float64              `json:"distance_km,omitempty"`
	EstimatedArrival *time.Time           `json:"estimated_arrival,omitempty"`
	Partner          *PartnerSummary      `json:"partner,omitempty"`
	Issues           []IssueEntry         `json:"issues,omitempty"`
	OTPVerified      bool                 `json:"otp_verified"`
	LastUpdate       time.Time            `json:"last_update"`
}

// UpdatePatch carries the fields to shallow-merge into a cached update. Nil
// fields are left untouched; Issue is appended rather than replaced, while
// Issues swaps in the full list when rebuilding from durable state.
type UpdatePatch struct {
	Status           *order.DeliveryStatus
	Location         *GeoState
	DistanceKM       *float64
	EstimatedArrival *time.Time
	Partner          *PartnerSummary
	Issue            *IssueEntry
	Issues           []IssueEntry
	OTPVerified      *bool
}

// UpdateCache holds the last-known delivery state per order so a client that
// connects late can be caught up immediately. It is process-local and
// intentionally lost on restart; the database is the system of record.
type UpdateCache struct {
	mu      sync.RWMutex
	updates map[uint]*DeliveryUpdate
	timers  map[uint]*time.Timer
}

func NewUpdateCache() *UpdateCache {
	return &UpdateCache{
		updates: make(map[uint]*DeliveryUpdate),
		timers:  make(map[uint]*time.Timer),
	}
}

// Get returns a copy of the current snapshot for the order, if present
func (c *UpdateCache) Get(orderID uint) (DeliveryUpdate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	u, ok := c.updates[orderID]
	if !ok {
		return DeliveryUpdate{}, false
	}
	return copyUpdate(u), true
}

// Merge shallow-merges the patch into the order's record, creating one if
// absent, and stamps LastUpdate. Merges are last-write-wins in call order.
func (c *UpdateCache) Merge(orderID uint, patch UpdatePatch) DeliveryUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.updates[orderID]
	if !ok {
		u = &DeliveryUpdate{OrderID: orderID}
		c.updates[orderID] = u
	}

	if patch.Status != nil {
		u.Status = *patch.Status
	}
	if patch.Location != nil {
		loc := *patch.Location
		u.CurrentLocation = &loc
	}
	if patch.DistanceKM != nil {
		u.DistanceKM = *patch.DistanceKM
	}
	if patch.EstimatedArrival != nil {
		eta := *patch.EstimatedArrival
		u.EstimatedArrival = &eta
	}
	if patch.Partner != nil {
		p := *patch.Partner
		u.Partner = &p
	}
	if patch.Issues != nil {
		u.Issues = append([]IssueEntry(nil), patch.Issues...)
	}
	if patch.Issue != nil {
		u.Issues = append(u.Issues, *patch.Issue)
	}
	if patch.OTPVerified != nil {
		u.OTPVerified = *patch.OTPVerified
	}
	u.LastUpdate = time.Now()

	return copyUpdate(u)
}

// Evict removes the order's record and cancels any pending eviction timer
func (c *UpdateCache) Evict(orderID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[orderID]; ok {
		t.Stop()
		delete(c.timers, orderID)
	}
	delete(c.updates, orderID)
}

// ScheduleEviction evicts the order's record after the grace window, so late
// clients can still fetch the final state. Rescheduling resets the timer.
func (c *UpdateCache) ScheduleEviction(orderID uint, grace time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[orderID]; ok {
		t.Stop()
	}
	c.timers[orderID] = time.AfterFunc(grace, func() {
		c.Evict(orderID)
	})
}

// Snapshot returns copies of every cached update
func (c *UpdateCache) Snapshot() []DeliveryUpdate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]DeliveryUpdate, 0, len(c.updates))
	for _, u := range c.updates {
		out = append(out, copyUpdate(u))
	}
	return out
}

// Len returns the number of cached updates
func (c *UpdateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.updates)
}

func copyUpdate(u *DeliveryUpdate) DeliveryUpdate {
	out := *u
	if u.CurrentLocation != nil {
		loc := *u.CurrentLocation
		out.CurrentLocation = &loc
	}
	if u.EstimatedArrival != nil {
		eta := *u.EstimatedArrival
		out.EstimatedArrival = &eta
	}
	if u.Partner != nil {
		p := *u.Partner
		out.Partner = &p
	}
	if len(u.Issues) > 0 {
		out.Issues = append([]IssueEntry(nil), u.Issues...)
	}
	return out
}
