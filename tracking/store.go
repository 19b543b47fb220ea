package tracking

import (
	"errors"

	"grocery-delivery/models/order"
	"grocery-delivery/models/user"
	"grocery-delivery/services/order_event"

	"gorm.io/gorm"
)

// ErrOrderNotFound is returned when an order id does not resolve to a row
var ErrOrderNotFound = errors.New("order not found")

// OrderStore is the relay's view of durable order state. The cache is only a
// low-latency mirror; everything here survives a restart.
type OrderStore interface {
	OrderByID(orderID uint) (*order.Order, error)
	UpdateOrderStatus(orderID uint, status order.DeliveryStatus) error
	AppendStatusEvent(o *order.Order, status order.DeliveryStatus, notes string, lat, lng *float64, createdBy string) error
	SaveIssue(issue *order.DeliveryIssue) error
	IssuesByOrderID(orderID uint) ([]order.DeliveryIssue, error)
	SaveFeedback(fb *order.DeliveryFeedback) error
	MarkOTPVerified(orderID uint) error
	PartnerSummary(partnerID uint) (*PartnerSummary, error)
	ActiveOrders() ([]order.Order, error)
	TimelineByOrderID(orderID uint) ([]order.OrderStatusEvent, error)
}

// GormOrderStore implements OrderStore on the GORM connection
type GormOrderStore struct {
	DB *gorm.DB
}

func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{DB: db}
}

func (s *GormOrderStore) OrderByID(orderID uint) (*order.Order, error) {
	var o order.Order
	if err := s.DB.First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (s *GormOrderStore) UpdateOrderStatus(orderID uint, status order.DeliveryStatus) error {
	return s.DB.Model(&order.Order{}).Where("id = ?", orderID).
		Update("status", status).Error
}

func (s *GormOrderStore) AppendStatusEvent(o *order.Order, status order.DeliveryStatus, notes string, lat, lng *float64, createdBy string) error {
	return order_event.SnapshotOrderToEvent(s.DB, o, status, notes, lat, lng, createdBy)
}

func (s *GormOrderStore) SaveIssue(issue *order.DeliveryIssue) error {
	return s.DB.Create(issue).Error
}

func (s *GormOrderStore) IssuesByOrderID(orderID uint) ([]order.DeliveryIssue, error) {
	var issues []order.DeliveryIssue
	err := s.DB.Where("order_id = ?", orderID).
		Order("created_at ASC").Find(&issues).Error
	return issues, err
}

func (s *GormOrderStore) SaveFeedback(fb *order.DeliveryFeedback) error {
	return s.DB.Create(fb).Error
}

func (s *GormOrderStore) MarkOTPVerified(orderID uint) error {
	return s.DB.Model(&order.Order{}).Where("id = ?", orderID).
		Update("otp_verified", true).Error
}

func (s *GormOrderStore) PartnerSummary(partnerID uint) (*PartnerSummary, error) {
	var u user.User
	if err := s.DB.First(&u, partnerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("partner not found")
		}
		return nil, err
	}
	return &PartnerSummary{Name: u.Name, Mobile: u.Phone, Vehicle: u.Vehicle}, nil
}

func (s *GormOrderStore) ActiveOrders() ([]order.Order, error) {
	var orders []order.Order
	err := s.DB.Where("status NOT IN ?", []order.DeliveryStatus{
		order.StatusDelivered, order.StatusCancelled, order.StatusFailed,
	}).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (s *GormOrderStore) TimelineByOrderID(orderID uint) ([]order.OrderStatusEvent, error) {
	var events []order.OrderStatusEvent
	err := s.DB.Where("order_id = ?", orderID).
		Order("created_at ASC").Find(&events).Error
	return events, err
}
