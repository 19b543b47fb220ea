package order

import (
	"time"
)

// DeliveryIssue represents a problem reported by the delivery partner mid-delivery
type DeliveryIssue struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	OrderID uint  `gorm:"not null;index" json:"order_id"`
	Order   Order `gorm:"foreignKey:OrderID" json:"-"`

	Type        string    `gorm:"type:varchar(50);not null" json:"type"`
	Description string    `gorm:"type:varchar(1000);not null" json:"description"`
	TicketID    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"ticket_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the DeliveryIssue model
func (DeliveryIssue) TableName() string {
	return "delivery_issues"
}
