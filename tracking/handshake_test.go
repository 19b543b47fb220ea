package tracking

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const handshakeTestSecret = "handshake-test-secret"

func handshakeToken(t *testing.T, uuid, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uuid": uuid,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(handshakeTestSecret))
	require.NoError(t, err)
	return signed
}

// newHandshakeApp mounts HandshakeAuth in front of a capture handler so the
// tests can observe the principal that would reach the upgrade.
func newHandshakeApp(db *gorm.DB) (*fiber.App, *Principal) {
	captured := &Principal{}
	app := fiber.New()
	app.Get("/ws/tracking", HandshakeAuth(db), func(c *fiber.Ctx) error {
		if p, ok := c.Locals(principalLocal).(Principal); ok {
			*captured = p
		}
		return c.SendStatus(fiber.StatusOK)
	})
	return app, captured
}

func upgradeRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	return req
}

func TestHandshakeRequiresUpgradeRequest(t *testing.T) {
	t.Setenv("JWT_SECRET", handshakeTestSecret)
	app, _ := newHandshakeApp(newTestDB(t))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws/tracking", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestHandshakeRejectsMissingTokenOrBadKind(t *testing.T) {
	t.Setenv("JWT_SECRET", handshakeTestSecret)
	db := newTestDB(t)
	seedOrder(t, db)
	app, _ := newHandshakeApp(db)

	token := handshakeToken(t, "customer-uuid", "customer")

	for _, target := range []string{
		"/ws/tracking?kind=customer",
		"/ws/tracking?token=" + token,
		"/ws/tracking?token=" + token + "&kind=superuser",
	} {
		resp, err := app.Test(upgradeRequest(target))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, target)
	}
}

func TestHandshakeRejectsInvalidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", handshakeTestSecret)
	app, _ := newHandshakeApp(newTestDB(t))

	resp, err := app.Test(upgradeRequest("/ws/tracking?token=not-a-jwt&kind=customer"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandshakeRejectsUnknownUser(t *testing.T) {
	t.Setenv("JWT_SECRET", handshakeTestSecret)
	app, _ := newHandshakeApp(newTestDB(t))

	token := handshakeToken(t, "ghost-uuid", "customer")
	resp, err := app.Test(upgradeRequest("/ws/tracking?token=" + token + "&kind=customer"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandshakeRefusesKindNotMatchingStoredRole(t *testing.T) {
	t.Setenv("JWT_SECRET", handshakeTestSecret)
	db := newTestDB(t)
	seedOrder(t, db)
	app, captured := newHandshakeApp(db)

	// Stored role is customer, but the connection declares partner
	token := handshakeToken(t, "customer-uuid", "customer")
	resp, err := app.Test(upgradeRequest("/ws/tracking?token=" + token + "&kind=partner"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Zero(t, captured.UserID)
}

func TestHandshakeAcceptsCorroboratedKind(t *testing.T) {
	t.Setenv("JWT_SECRET", handshakeTestSecret)
	db := newTestDB(t)
	o, partner := seedOrder(t, db)

	app, captured := newHandshakeApp(db)

	token := handshakeToken(t, partner.UUID, "partner")
	resp, err := app.Test(upgradeRequest("/ws/tracking?token=" + token + "&kind=partner"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, "partner", captured.Kind)
	assert.Equal(t, partner.ID, captured.UserID)
	assert.Equal(t, partner.UUID, captured.UUID)
	assert.Equal(t, *o.PartnerID, captured.UserID)
}
