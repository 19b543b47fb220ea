package order

// Helper methods for DeliveryStatus
func (ds DeliveryStatus) String() string {
	return string(ds)
}

// statusRank orders the forward delivery progression. Terminal escapes
// (cancelled/failed) are handled separately.
var statusRank = map[DeliveryStatus]int{
	StatusAssigned:      1,
	StatusPickupStarted: 2,
	StatusPickedUp:      3,
	StatusInTransit:     4,
	StatusArrived:       5,
	StatusDelivered:     6,
}

func (ds DeliveryStatus) IsValid() bool {
	switch ds {
	case StatusAssigned, StatusPickupStarted, StatusPickedUp, StatusInTransit,
		StatusArrived, StatusDelivered, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further transition may occur from this status
func (ds DeliveryStatus) IsTerminal() bool {
	return ds == StatusDelivered || ds == StatusCancelled || ds == StatusFailed
}

// CanTransitionTo reports whether a partner may move the order from ds to next.
// Progression is forward-only; skipping intermediate states is allowed. Any
// non-terminal state may move to cancelled or failed.
func (ds DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	if ds.IsTerminal() || !next.IsValid() {
		return false
	}
	if next == StatusCancelled || next == StatusFailed {
		return true
	}
	return statusRank[next] > statusRank[ds]
}

// GetAllDeliveryStatuses returns all valid delivery statuses
func GetAllDeliveryStatuses() []DeliveryStatus {
	return []DeliveryStatus{
		StatusAssigned,
		StatusPickupStarted,
		StatusPickedUp,
		StatusInTransit,
		StatusArrived,
		StatusDelivered,
		StatusFailed,
		StatusCancelled,
	}
}
