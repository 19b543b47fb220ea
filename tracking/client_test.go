package tracking

import (
	"testing"

	"grocery-delivery/constants"

	"github.com/stretchr/testify/assert"
)

// The hub may drop a stalled client while its read pump is still dispatching
// a frame that replies directly, so a delivery racing Close must stay safe.
func TestClientDeliverAfterCloseIsSafe(t *testing.T) {
	c := newClient(nil, nil, Principal{Kind: constants.RoleCustomer, UserID: 10})

	assert.True(t, c.Deliver([]byte(`{}`)))

	c.Close()
	c.Close() // idempotent

	assert.NotPanics(t, func() {
		assert.False(t, c.Deliver([]byte(`{}`)))
		assert.False(t, Send(c, ServerEventDeliveryUpdate, nil))
	})
}

func TestClientDeliverDropsWhenBufferFull(t *testing.T) {
	c := newClient(nil, nil, Principal{Kind: constants.RoleCustomer, UserID: 10})

	for i := 0; i < sendBufferSize; i++ {
		assert.True(t, c.Deliver([]byte(`{}`)))
	}
	assert.False(t, c.Deliver([]byte(`{}`)))
}
