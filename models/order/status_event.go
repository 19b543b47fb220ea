package order

import (
	"time"
)

// OrderStatusEvent represents one timeline entry for an order's delivery
type OrderStatusEvent struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	OrderID uint  `gorm:"not null;index" json:"order_id"`
	Order   Order `gorm:"foreignKey:OrderID" json:"-"`

	Status    DeliveryStatus `gorm:"type:varchar(20);not null" json:"status"`
	Notes     string         `gorm:"type:varchar(500)" json:"notes,omitempty"`
	Latitude  *float64       `json:"latitude,omitempty"`
	Longitude *float64       `json:"longitude,omitempty"`
	CreatedBy string         `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the OrderStatusEvent model
func (OrderStatusEvent) TableName() string {
	return "order_status_events"
}
