package order

import (
	"time"

	"grocery-delivery/models/user"
)

// DeliveryStatus represents the delivery state of an order
type DeliveryStatus string

const (
	StatusAssigned      DeliveryStatus = "assigned"
	StatusPickupStarted DeliveryStatus = "pickup_started"
	StatusPickedUp      DeliveryStatus = "picked_up"
	StatusInTransit     DeliveryStatus = "in_transit"
	StatusArrived       DeliveryStatus = "arrived"
	StatusDelivered     DeliveryStatus = "delivered"
	StatusFailed        DeliveryStatus = "failed"
	StatusCancelled     DeliveryStatus = "cancelled"
)

// Order represents a grocery order in the delivery phase
type Order struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"order_number"`
	CustomerID  uint       `gorm:"not null;index" json:"customer_id"`
	Customer    user.User  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	PartnerID   *uint      `gorm:"index" json:"partner_id,omitempty"`
	Partner     *user.User `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`

	Status      DeliveryStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	DeliveryOTP string         `gorm:"type:varchar(6)" json:"-"`
	OTPVerified bool           `gorm:"default:false" json:"otp_verified"`

	// Drop-off destination, used to derive distance-to-customer
	Address           string  `gorm:"type:varchar(500)" json:"address"`
	DeliveryLatitude  float64 `json:"delivery_latitude"`
	DeliveryLongitude float64 `json:"delivery_longitude"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
