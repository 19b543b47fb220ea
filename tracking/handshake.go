package tracking

import (
	"errors"
	"fmt"

	"grocery-delivery/constants"
	"grocery-delivery/logger"
	"grocery-delivery/middleware"
	userModel "grocery-delivery/models/user"
	"grocery-delivery/types"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const principalLocal = "tracking_principal"

// HandshakeAuth authenticates the websocket upgrade request. The handshake
// carries the bearer token and the declared principal kind as query params;
// the kind must be corroborated by the stored user role or the connection is
// refused before the upgrade.
func HandshakeAuth(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := c.Query("token")
		kind := c.Query("kind")

		if token == "" || !constants.IsValidRole(kind) {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Status:  fiber.StatusUnauthorized,
				Message: "Missing token or invalid principal kind",
			})
		}

		claims, err := middleware.VerifyJWT(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Status:  fiber.StatusUnauthorized,
				Message: "Invalid or expired token",
			})
		}

		uuid := middleware.ClaimsUUID(claims)
		var u userModel.User
		if err := db.Where("uuid = ?", uuid).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
					Status:  fiber.StatusUnauthorized,
					Message: "Unknown user",
				})
			}
			logger.Error("Handshake user lookup failed", err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Status:  fiber.StatusInternalServerError,
				Message: "Internal server error",
			})
		}

		if u.Role != kind {
			logger.Warning(fmt.Sprintf("User %d declared kind %q but has role %q, refusing connection", u.ID, kind, u.Role))
			return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
				Status:  fiber.StatusForbidden,
				Message: "Declared kind does not match user role",
			})
		}

		c.Locals(principalLocal, Principal{
			Kind:   kind,
			UserID: u.ID,
			UUID:   u.UUID,
			Name:   u.Name,
		})
		return c.Next()
	}
}

// Handler upgrades the connection and services it until disconnect
func Handler(hub *Hub, relay *Relay) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		principal, ok := conn.Locals(principalLocal).(Principal)
		if !ok {
			conn.Close()
			return
		}

		client := newClient(hub, conn, principal)
		client.run(relay)
	})
}
