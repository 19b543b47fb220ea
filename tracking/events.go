package tracking

import (
	"time"

	"grocery-delivery/models/order"
)

// Server event names emitted to tracking consumers.
const (
	ServerEventOrderAssigned  = "order_assigned"
	ServerEventStatusUpdate   = "delivery_status_update"
	ServerEventLocationUpdate = "delivery_location_update"
	ServerEventCompleted      = "delivery_completed"
	ServerEventIssueReported  = "delivery_issue_reported"
	ServerEventCancelled      = "delivery_cancelled"
	ServerEventOTPVerified    = "otp_verified"
	ServerEventOTPRejected    = "otp_rejected"
	ServerEventDeliveryUpdate = "delivery_update"
)

// statusEventName maps an accepted status transition to the event broadcast
// for it.
func statusEventName(status order.DeliveryStatus) string {
	switch status {
	case order.StatusAssigned:
		return ServerEventOrderAssigned
	case order.StatusDelivered:
		return ServerEventCompleted
	case order.StatusCancelled, order.StatusFailed:
		return ServerEventCancelled
	default:
		return ServerEventStatusUpdate
	}
}

// StatusBroadcast is the payload for status-change events
type StatusBroadcast struct {
	OrderID   uint                 `json:"order_id"`
	Status    order.DeliveryStatus `json:"status"`
	Notes     string               `json:"notes,omitempty"`
	Location  *GeoState            `json:"location,omitempty"`
	Partner   *PartnerSummary      `json:"partner,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// LocationBroadcast is the payload for location ping events
type LocationBroadcast struct {
	OrderID          uint       `json:"order_id"`
	Location         GeoState   `json:"location"`
	DistanceKM       float64    `json:"distance_km"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
	Timestamp        time.Time  `json:"timestamp"`

	// Set on the admin:live copy only
	PartnerID uint `json:"partner_id,omitempty"`
}

// IssueBroadcast is the payload for issue report events
type IssueBroadcast struct {
	OrderID     uint      `json:"order_id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	TicketID    string    `json:"ticket_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// OTPVerifiedBroadcast confirms delivery hand-off to both rooms
type OTPVerifiedBroadcast struct {
	OrderID   uint      `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}

// OTPRejection goes back to the submitting connection only
type OTPRejection struct {
	OrderID uint   `json:"order_id"`
	Message string `json:"message"`
}
