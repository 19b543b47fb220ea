package order_event

import (
	orderModel "grocery-delivery/models/order"

	"gorm.io/gorm"
)

// SnapshotOrderToEvent writes one timeline row recording the order's delivery
// status change and who caused it.
func SnapshotOrderToEvent(tx *gorm.DB, o *orderModel.Order, status orderModel.DeliveryStatus, notes string, lat, lng *float64, createdBy string) error {
	ev := orderModel.OrderStatusEvent{
		OrderID:   o.ID,
		Status:    status,
		Notes:     notes,
		Latitude:  lat,
		Longitude: lng,
		CreatedBy: createdBy,
	}

	return tx.Create(&ev).Error
}
