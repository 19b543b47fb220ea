package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	orderModel "grocery-delivery/models/order"

	"gorm.io/gorm"
)

// Service handles delivery OTP operations
type Service struct {
	DB *gorm.DB
}

// NewOTPService creates a new OTP service
func NewOTPService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// GenerateOTP generates a random 6-digit OTP
func (s *Service) GenerateOTP() (string, error) {
	max := big.NewInt(999999)
	min := big.NewInt(100000)

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	// Ensure the number is at least 6 digits
	n.Add(n, min)
	if n.Cmp(max) > 0 {
		n.Sub(n, max)
		n.Add(n, min)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

// AssignDeliveryOTP generates and stores the hand-off code for an order. The
// code is created once at assignment time and surfaced to the customer by the
// order system, not over the tracking channel.
func (s *Service) AssignDeliveryOTP(o *orderModel.Order) (string, error) {
	code, err := s.GenerateOTP()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	o.DeliveryOTP = code
	o.OTPVerified = false
	if err := s.DB.Model(o).Updates(map[string]interface{}{
		"delivery_otp": code,
		"otp_verified": false,
	}).Error; err != nil {
		return "", fmt.Errorf("failed to store delivery OTP: %w", err)
	}

	return code, nil
}

// VerifyDeliveryOTP checks the submitted code against the order's stored OTP.
// The match is a case-sensitive exact comparison with no lockout; repeated
// correct submissions stay verified without further side effects.
func (s *Service) VerifyDeliveryOTP(orderID uint, code string) (bool, error) {
	var o orderModel.Order
	if err := s.DB.First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("order not found")
		}
		return false, fmt.Errorf("failed to find order: %w", err)
	}

	if o.DeliveryOTP == "" || o.DeliveryOTP != code {
		return false, nil
	}

	if !o.OTPVerified {
		if err := s.DB.Model(&o).Update("otp_verified", true).Error; err != nil {
			return false, fmt.Errorf("failed to mark OTP as verified: %w", err)
		}
	}

	return true, nil
}
