package entities_test

import (
	"testing"

	"github.com/SergeyBogomolovv/orders-ms/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	for _, s := range []string{"PENDING", "DELIVERED", "CANCELLED"} {
		status, err := entities.ParseOrderStatus(s)
		require.NoError(t, err)
		assert.Equal(t, entities.OrderStatus(s), status)
	}

	_, err := entities.ParseOrderStatus("SHIPPED")
	assert.ErrorIs(t, err, entities.ErrInvalidOrderStatus)

	_, err = entities.ParseOrderStatus("pending")
	assert.ErrorIs(t, err, entities.ErrInvalidOrderStatus)
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	testCases := []struct {
		from entities.OrderStatus
		to   entities.OrderStatus
		want bool
	}{
		{entities.StatusPending, entities.StatusDelivered, true},
		{entities.StatusPending, entities.StatusCancelled, true},
		{entities.StatusDelivered, entities.StatusPending, false},
		{entities.StatusDelivered, entities.StatusCancelled, false},
		{entities.StatusCancelled, entities.StatusPending, false},
		{entities.StatusCancelled, entities.StatusDelivered, false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
