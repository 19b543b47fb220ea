package tracking

import (
	"encoding/json"
	"fmt"
)

// Client event names accepted over the tracking socket.
const (
	EventJoinOrderTracking     = "join_order_tracking"
	EventLeaveOrderTracking    = "leave_order_tracking"
	EventRequestDeliveryUpdate = "request_delivery_update"
	EventDeliveryFeedback      = "delivery_feedback"
	EventVerifyDeliveryOTP     = "verify_delivery_otp"
	EventStatusUpdate          = "status_update"
	EventLocationUpdate        = "location_update"
	EventIssueReport           = "issue_report"
)

// ClientMessage is the envelope every inbound socket frame must carry.
type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// GeoPoint is a raw coordinate pair as sent by a delivery partner
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate validates that the coordinates are in range
func (p *GeoPoint) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

type OrderRoomRequest struct {
	OrderID uint `json:"order_id" validate:"required"`
}

// Validate validates the OrderRoomRequest fields
func (r *OrderRoomRequest) Validate() error {
	if r.OrderID == 0 {
		return fmt.Errorf("order_id is required")
	}
	return nil
}

type StatusUpdateRequest struct {
	OrderID  uint      `json:"order_id" validate:"required"`
	Status   string    `json:"status" validate:"required"`
	Notes    string    `json:"notes,omitempty"`
	Location *GeoPoint `json:"location,omitempty"`
}

// Validate validates the StatusUpdateRequest fields
func (r *StatusUpdateRequest) Validate() error {
	if r.OrderID == 0 {
		return fmt.Errorf("order_id is required")
	}
	if r.Status == "" {
		return fmt.Errorf("status is required")
	}
	if r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type LocationUpdateRequest struct {
	OrderID   uint    `json:"order_id" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"required"`
	Longitude float64 `json:"longitude" validate:"required"`
	Speed     float64 `json:"speed,omitempty"`
	Heading   float64 `json:"heading,omitempty"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// Validate validates the LocationUpdateRequest fields
func (r *LocationUpdateRequest) Validate() error {
	if r.OrderID == 0 {
		return fmt.Errorf("order_id is required")
	}
	point := GeoPoint{Latitude: r.Latitude, Longitude: r.Longitude}
	if err := point.Validate(); err != nil {
		return err
	}
	if r.Speed < 0 {
		return fmt.Errorf("speed cannot be negative")
	}
	if r.Heading < 0 || r.Heading >= 360 {
		return fmt.Errorf("heading must be between 0 and 360")
	}
	return nil
}

type IssueReportRequest struct {
	OrderID     uint   `json:"order_id" validate:"required"`
	Type        string `json:"type" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// Validate validates the IssueReportRequest fields
func (r *IssueReportRequest) Validate() error {
	if r.OrderID == 0 {
		return fmt.Errorf("order_id is required")
	}
	if r.Type == "" {
		return fmt.Errorf("type is required")
	}
	if r.Description == "" {
		return fmt.Errorf("description is required")
	}
	return nil
}

type VerifyDeliveryOTPRequest struct {
	OrderID uint   `json:"order_id" validate:"required"`
	OTP     string `json:"otp" validate:"required"`
}

// Validate validates the VerifyDeliveryOTPRequest fields
func (r *VerifyDeliveryOTPRequest) Validate() error {
	if r.OrderID == 0 {
		return fmt.Errorf("order_id is required")
	}
	if r.OTP == "" {
		return fmt.Errorf("otp is required")
	}
	return nil
}

type DeliveryFeedbackRequest struct {
	OrderID uint   `json:"order_id" validate:"required"`
	Rating  int    `json:"rating" validate:"required"`
	Comment string `json:"comment,omitempty"`
}

// Validate validates the DeliveryFeedbackRequest fields
func (r *DeliveryFeedbackRequest) Validate() error {
	if r.OrderID == 0 {
		return fmt.Errorf("order_id is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}
