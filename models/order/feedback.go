package order

import (
	"time"
)

// DeliveryFeedback represents a customer rating after delivery completion
type DeliveryFeedback struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	OrderID uint  `gorm:"not null;index" json:"order_id"`
	Order   Order `gorm:"foreignKey:OrderID" json:"-"`

	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    string    `gorm:"type:varchar(1000)" json:"comment,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the DeliveryFeedback model
func (DeliveryFeedback) TableName() string {
	return "delivery_feedbacks"
}
