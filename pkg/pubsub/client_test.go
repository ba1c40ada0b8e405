package pubsub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/procurement-backend/pkg/config"
)

func TestResourceName(t *testing.T) {
	cases := []struct {
		kind, name, want string
	}{
		{"subscriptions", "orders-analytics", "projects/proj/subscriptions/orders-analytics"},
		{"subscriptions", " projects/other/subscriptions/x ", "projects/other/subscriptions/x"},
		{"topics", "order-events", "projects/proj/topics/order-events"},
		{"topics", "  ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, resourceName("proj", tc.kind, tc.name), tc.name)
	}
	assert.Empty(t, resourceName("", "topics", "order-events"))
}

func TestCheckResource(t *testing.T) {
	require.NoError(t, checkResource("topic", "projects/p/topics/t", nil))

	err := checkResource("topic", "projects/p/topics/t", status.Error(codes.NotFound, "gone"))
	assert.ErrorIs(t, err, ErrResourceMissing)

	err = checkResource("subscription", "projects/p/subscriptions/s", status.Error(codes.PermissionDenied, "nope"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrResourceMissing))
}

func TestNewClientValidatesInput(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, RolePublisher, nil)
	assert.ErrorIs(t, err, ErrProjectIDRequired)

	_, err = NewClient(context.Background(), config.GCPConfig{ProjectID: "proj"}, config.PubSubConfig{}, Role(9), nil)
	assert.Error(t, err)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("order-events"))
	assert.Nil(t, c.OrdersSubscription())
	require.NoError(t, c.Close())
	require.Error(t, c.Ping(context.Background()))
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "publisher", RolePublisher.String())
	assert.Equal(t, "subscriber", RoleSubscriber.String())
	assert.Equal(t, "unknown", Role(0).String())
}
