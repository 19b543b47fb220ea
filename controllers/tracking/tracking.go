package tracking

import (
	"errors"
	"fmt"
	"strconv"

	"grocery-delivery/constants"
	"grocery-delivery/logger"
	"grocery-delivery/middleware"
	orderModel "grocery-delivery/models/order"
	userModel "grocery-delivery/models/user"
	order_event "grocery-delivery/services/order_event"
	otpService "grocery-delivery/services/otp"
	"grocery-delivery/tracking"
	"grocery-delivery/types"
	"grocery-delivery/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// TrackingController handles the REST collaborator surface of the tracking
// subsystem: snapshots, timelines, the OTP fallback and admin views.
type TrackingController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
	Relay  *tracking.Relay
	Store  tracking.OrderStore
}

// NewTrackingController creates a new tracking controller
func NewTrackingController(db *gorm.DB, asyncLogger *logger.AsyncLogger, relay *tracking.Relay, store tracking.OrderStore) *TrackingController {
	return &TrackingController{
		DB:     db,
		Logger: asyncLogger,
		Relay:  relay,
		Store:  store,
	}
}

// Helper function to log API requests and responses
func (tc *TrackingController) logAPIRequest(c *fiber.Ctx) {
	logEntry := utils.CreateSanitizedLogEntry(c)
	tc.Logger.Log(logEntry)
}

// Helper function to send response and log in one call
func (tc *TrackingController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	tc.logAPIRequest(c)
	return result
}

func (tc *TrackingController) orderIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("orderID"), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid order id")
	}
	return uint(id), nil
}

// resolveOrder loads the order and enforces access: admins see everything,
// customers only their own orders. Foreign orders answer 404, not 403, so
// order ids stay non-enumerable.
func (tc *TrackingController) resolveOrder(c *fiber.Ctx, orderID uint) (*orderModel.Order, *userModel.User, int, string) {
	claims, ok := utils.ClaimsFromContext(c)
	if !ok {
		return nil, nil, fiber.StatusUnauthorized, "Invalid user claims"
	}

	caller, err := utils.GetUserByUUID(middleware.ClaimsUUID(claims))
	if err != nil {
		logger.Error("Error finding user by UUID", err)
		if err.Error() == "user not found" {
			return nil, nil, fiber.StatusUnauthorized, "User not found"
		}
		return nil, nil, fiber.StatusInternalServerError, "Database error"
	}

	o, err := tc.Store.OrderByID(orderID)
	if err != nil {
		if errors.Is(err, tracking.ErrOrderNotFound) {
			return nil, nil, fiber.StatusNotFound, "Order not found"
		}
		logger.Error("Failed to find order", err)
		return nil, nil, fiber.StatusInternalServerError, "Internal server error"
	}

	if caller.Role == constants.RoleCustomer && o.CustomerID != caller.ID {
		return nil, nil, fiber.StatusNotFound, "Order not found"
	}

	return o, caller, 0, ""
}

// GetSnapshot returns the live delivery snapshot for an order
func (tc *TrackingController) GetSnapshot(c *fiber.Ctx) error {
	orderID, err := tc.orderIDParam(c)
	if err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	if _, _, status, msg := tc.resolveOrder(c, orderID); status != 0 {
		return tc.sendResponseWithLog(c, status, types.ApiResponse{Status: status, Message: msg})
	}

	snapshot, err := tc.Relay.Snapshot(orderID)
	if err != nil {
		logger.Error("Failed to build tracking snapshot", err)
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Tracking snapshot retrieved successfully",
		Data:    snapshot,
	})
}

// GetTimeline returns the durable status history for an order
func (tc *TrackingController) GetTimeline(c *fiber.Ctx) error {
	orderID, err := tc.orderIDParam(c)
	if err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	if _, _, status, msg := tc.resolveOrder(c, orderID); status != 0 {
		return tc.sendResponseWithLog(c, status, types.ApiResponse{Status: status, Message: msg})
	}

	events, err := tc.Store.TimelineByOrderID(orderID)
	if err != nil {
		logger.Error("Failed to fetch order timeline", err)
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Order timeline retrieved successfully",
		Data:    events,
	})
}

type verifyOTPRequest struct {
	OTP string `json:"otp" validate:"required"`
}

// VerifyOTP is the HTTP fallback for delivery OTP submission, with the same
// exact-match semantics as the socket path
func (tc *TrackingController) VerifyOTP(c *fiber.Ctx) error {
	orderID, err := tc.orderIDParam(c)
	if err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil || req.OTP == "" {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "otp is required",
		})
	}

	o, _, status, msg := tc.resolveOrder(c, orderID)
	if status != 0 {
		return tc.sendResponseWithLog(c, status, types.ApiResponse{Status: status, Message: msg})
	}

	otpSvc := otpService.NewOTPService(tc.DB)
	verified, err := otpSvc.VerifyDeliveryOTP(o.ID, req.OTP)
	if err != nil {
		logger.Error("Failed to verify delivery OTP", err)
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	if !verified {
		logger.Warning(fmt.Sprintf("OTP mismatch for order %d over HTTP", o.ID))
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid delivery OTP",
		})
	}

	tc.Relay.AnnounceOTPVerified(o.ID)

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Delivery OTP verified successfully",
		Data:    map[string]interface{}{"order_id": o.ID, "otp_verified": true},
	})
}

type feedbackRequest struct {
	Rating  int    `json:"rating" validate:"required"`
	Comment string `json:"comment,omitempty"`
}

// SubmitFeedback stores a customer's post-delivery rating
func (tc *TrackingController) SubmitFeedback(c *fiber.Ctx) error {
	orderID, err := tc.orderIDParam(c)
	if err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "rating must be between 1 and 5",
		})
	}

	o, caller, status, msg := tc.resolveOrder(c, orderID)
	if status != 0 {
		return tc.sendResponseWithLog(c, status, types.ApiResponse{Status: status, Message: msg})
	}

	fb := &orderModel.DeliveryFeedback{
		OrderID:    o.ID,
		CustomerID: caller.ID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := tc.Store.SaveFeedback(fb); err != nil {
		logger.Error("Failed to save delivery feedback", err)
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to save feedback",
		})
	}

	return tc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Feedback submitted successfully",
		Data:    fb,
	})
}

// GetActiveDeliveries lists all non-terminal deliveries with their cached
// live state. Admin only.
func (tc *TrackingController) GetActiveDeliveries(c *fiber.Ctx) error {
	orders, err := tc.Store.ActiveOrders()
	if err != nil {
		logger.Error("Failed to fetch active deliveries", err)
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	deliveries := make([]fiber.Map, 0, len(orders))
	for i := range orders {
		entry := fiber.Map{"order": orders[i]}
		if snapshot, err := tc.Relay.Snapshot(orders[i].ID); err == nil {
			entry["live"] = snapshot
		}
		deliveries = append(deliveries, entry)
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Active deliveries retrieved successfully",
		Data:    deliveries,
	})
}

// GetTodayStats summarizes today's delivery outcomes. Admin only.
func (tc *TrackingController) GetTodayStats(c *fiber.Ctx) error {
	dayStart := now.BeginningOfDay()

	var delivered, failed, cancelled, active int64
	counts := []struct {
		status orderModel.DeliveryStatus
		dest   *int64
	}{
		{orderModel.StatusDelivered, &delivered},
		{orderModel.StatusFailed, &failed},
		{orderModel.StatusCancelled, &cancelled},
	}
	for _, count := range counts {
		if err := tc.DB.Model(&orderModel.Order{}).
			Where("status = ? AND updated_at >= ?", count.status, dayStart).
			Count(count.dest).Error; err != nil {
			logger.Error("Failed to count delivery stats", err)
			return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
				Status:  fiber.StatusInternalServerError,
				Message: "Internal server error",
			})
		}
	}

	if err := tc.DB.Model(&orderModel.Order{}).
		Where("status NOT IN ?", []orderModel.DeliveryStatus{
			orderModel.StatusDelivered, orderModel.StatusCancelled, orderModel.StatusFailed,
		}).Count(&active).Error; err != nil {
		logger.Error("Failed to count active deliveries", err)
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Delivery stats retrieved successfully",
		Data: fiber.Map{
			"since":     dayStart,
			"delivered": delivered,
			"failed":    failed,
			"cancelled": cancelled,
			"active":    active,
		},
	})
}

type assignRequest struct {
	PartnerID uint `json:"partner_id" validate:"required"`
}

// AssignOrder assigns a delivery partner to an order, generates the hand-off
// OTP and announces the assignment to tracking consumers. Admin only.
func (tc *TrackingController) AssignOrder(c *fiber.Ctx) error {
	orderID, err := tc.orderIDParam(c)
	if err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	var req assignRequest
	if err := c.BodyParser(&req); err != nil || req.PartnerID == 0 {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "partner_id is required",
		})
	}

	o, caller, status, msg := tc.resolveOrder(c, orderID)
	if status != 0 {
		return tc.sendResponseWithLog(c, status, types.ApiResponse{Status: status, Message: msg})
	}

	if o.Status.IsTerminal() {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Cannot assign a partner to a completed order",
		})
	}

	var partner userModel.User
	if err := tc.DB.First(&partner, req.PartnerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Partner not found",
			})
		}
		logger.Error("Failed to find partner", err)
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	if partner.Role != constants.RolePartner {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "User is not a delivery partner",
		})
	}

	o.PartnerID = &partner.ID
	o.Status = orderModel.StatusAssigned
	if err := tc.DB.Model(o).Updates(map[string]interface{}{
		"partner_id": partner.ID,
		"status":     orderModel.StatusAssigned,
	}).Error; err != nil {
		logger.Error("Failed to assign partner", err)
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to assign partner",
		})
	}

	otpSvc := otpService.NewOTPService(tc.DB)
	code, err := otpSvc.AssignDeliveryOTP(o)
	if err != nil {
		logger.Error("Failed to generate delivery OTP", err)
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to generate delivery OTP",
		})
	}

	if err := order_event.SnapshotOrderToEvent(tc.DB, o, orderModel.StatusAssigned, "Partner assigned", nil, nil, caller.UUID); err != nil {
		logger.Error("Failed to write assignment timeline event", err)
	}

	tc.Relay.OrderAssigned(o)

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Partner assigned successfully",
		Data: fiber.Map{
			"order_id":     o.ID,
			"partner_id":   partner.ID,
			"delivery_otp": code,
		},
	})
}
