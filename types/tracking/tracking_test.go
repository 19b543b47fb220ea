package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderRoomRequestValidate(t *testing.T) {
	assert.Error(t, (&OrderRoomRequest{}).Validate())
	assert.NoError(t, (&OrderRoomRequest{OrderID: 1}).Validate())
}

func TestStatusUpdateRequestValidate(t *testing.T) {
	assert.Error(t, (&StatusUpdateRequest{Status: "in_transit"}).Validate())
	assert.Error(t, (&StatusUpdateRequest{OrderID: 1}).Validate())
	assert.Error(t, (&StatusUpdateRequest{
		OrderID: 1, Status: "in_transit",
		Location: &GeoPoint{Latitude: 91, Longitude: 0},
	}).Validate())
	assert.NoError(t, (&StatusUpdateRequest{OrderID: 1, Status: "in_transit"}).Validate())
}

func TestLocationUpdateRequestValidate(t *testing.T) {
	valid := LocationUpdateRequest{OrderID: 1, Latitude: 28.61, Longitude: 77.20}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.OrderID = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Longitude = 181
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Speed = -1
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Heading = 360
	assert.Error(t, bad.Validate())
}

func TestIssueReportRequestValidate(t *testing.T) {
	assert.Error(t, (&IssueReportRequest{OrderID: 1, Type: "traffic"}).Validate())
	assert.Error(t, (&IssueReportRequest{OrderID: 1, Description: "jam"}).Validate())
	assert.NoError(t, (&IssueReportRequest{OrderID: 1, Type: "traffic", Description: "jam"}).Validate())
}

func TestVerifyDeliveryOTPRequestValidate(t *testing.T) {
	assert.Error(t, (&VerifyDeliveryOTPRequest{OrderID: 1}).Validate())
	assert.NoError(t, (&VerifyDeliveryOTPRequest{OrderID: 1, OTP: "123456"}).Validate())
}

func TestDeliveryFeedbackRequestValidate(t *testing.T) {
	assert.Error(t, (&DeliveryFeedbackRequest{OrderID: 1, Rating: 0}).Validate())
	assert.Error(t, (&DeliveryFeedbackRequest{OrderID: 1, Rating: 6}).Validate())
	assert.NoError(t, (&DeliveryFeedbackRequest{OrderID: 1, Rating: 5, Comment: "great"}).Validate())
}
