package utils

import (
	"errors"
	"fmt"
	"time"

	"grocery-delivery/database"
	"grocery-delivery/models/user"
	"grocery-delivery/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const maxLoggedBodySize = 10 * 1024

// GetUserByUUID retrieves a user by their UUID from the database
func GetUserByUUID(uuid string) (*user.User, error) {
	if uuid == "" {
		return nil, errors.New("UUID cannot be empty")
	}

	var userModel user.User
	if err := database.DB.Where("uuid = ?", uuid).First(&userModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &userModel, nil
}

// ClaimsFromContext returns the verified JWT claims attached by the auth middleware
func ClaimsFromContext(c *fiber.Ctx) (jwt.MapClaims, bool) {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	return claims, ok
}

// CreateSanitizedLogEntry creates a deep copied and sanitized log entry for logging
func CreateSanitizedLogEntry(c *fiber.Ctx) types.LogEntry {
	// Deep copies prevent fasthttp buffer reuse from corrupting the entry
	method := string([]byte(c.Method()))
	url := string([]byte(c.OriginalURL()))
	requestBody := sanitizeBody(c.Body())
	responseBody := sanitizeBody(c.Response().Body())

	requestHeaders := make([]byte, len(c.Request().Header.Header()))
	copy(requestHeaders, c.Request().Header.Header())

	responseHeaders := make([]byte, len(c.Response().Header.Header()))
	copy(responseHeaders, c.Response().Header.Header())

	return types.LogEntry{
		Method:          method,
		URL:             url,
		RequestBody:     requestBody,
		ResponseBody:    responseBody,
		RequestHeaders:  string(requestHeaders),
		ResponseHeaders: string(responseHeaders),
		StatusCode:      c.Response().StatusCode(),
		CreatedAt:       time.Now(),
	}
}

func sanitizeBody(body []byte) string {
	if len(body) > maxLoggedBodySize {
		return fmt.Sprintf("[truncated, %d bytes]", len(body))
	}
	return string(append([]byte(nil), body...))
}
