package user

import (
	"time"
)

// User represents an authenticated principal: customer, delivery partner or admin
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"uuid"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string    `gorm:"type:varchar(20);index" json:"phone"`
	Role      string    `gorm:"type:varchar(20);not null;index" json:"role"`
	Vehicle   string    `gorm:"type:varchar(100)" json:"vehicle,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
