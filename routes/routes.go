package routes

import (
	"grocery-delivery/constants"
	trackingController "grocery-delivery/controllers/tracking"
	"grocery-delivery/logger"
	"grocery-delivery/middleware"
	"grocery-delivery/tracking"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	asyncLogger := logger.NewAsyncLogger(db)

	// Tracking subsystem wiring: hub + cache are process-local, the store is
	// the durable collaborator, the relay ties them together.
	hub := tracking.NewHub()
	cache := tracking.NewUpdateCache()
	store := tracking.NewGormOrderStore(db)
	relay := tracking.NewRelay(hub, cache, store)

	controller := trackingController.NewTrackingController(db, asyncLogger, relay, store)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	// Index route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "grocery-delivery tracking",
			"status":  "ok",
		})
	})

	/*=============================================================================
	| Tracking socket
	===============================================================================*/
	app.Get("/ws/tracking", tracking.HandshakeAuth(db), tracking.Handler(hub, relay))

	/*=============================================================================
	| Tracking REST collaborators
	===============================================================================*/
	api := app.Group("/api")
	trackingGroup := api.Group("/tracking")

	trackingGroup.Get("/orders/:orderID/snapshot", middleware.RequireRoles(
		constants.RoleCustomer, constants.RoleAdmin,
	), controller.GetSnapshot)

	trackingGroup.Get("/orders/:orderID/timeline", middleware.RequireRoles(
		constants.RoleCustomer, constants.RoleAdmin,
	), controller.GetTimeline)

	trackingGroup.Post("/orders/:orderID/verify-otp", middleware.RequireRoles(
		constants.RoleCustomer,
	), controller.VerifyOTP)

	trackingGroup.Post("/orders/:orderID/feedback", middleware.RequireRoles(
		constants.RoleCustomer,
	), controller.SubmitFeedback)

	trackingGroup.Post("/orders/:orderID/assign", middleware.RequireRoles(
		constants.RoleAdmin,
	), controller.AssignOrder)

	trackingGroup.Get("/active", middleware.RequireRoles(
		constants.RoleAdmin,
	), controller.GetActiveDeliveries)

	trackingGroup.Get("/stats/today", middleware.RequireRoles(
		constants.RoleAdmin,
	), controller.GetTodayStats)
}
