package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oventura/traderow-backend/pkg/enums"
	pkgerrors "github.com/oventura/traderow-backend/pkg/errors"
)

func TestNextStatus_AllowedTransitions(t *testing.T) {
	cases := []struct {
		from enums.OrderStatus
		to   enums.OrderStatus
	}{
		{enums.OrderStatusPending, enums.OrderStatusProcessing},
		{enums.OrderStatusPending, enums.OrderStatusCancelled},
		{enums.OrderStatusProcessing, enums.OrderStatusShipped},
		{enums.OrderStatusProcessing, enums.OrderStatusCancelled},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered},
	}
	for _, tc := range cases {
		got, err := NextStatus(tc.from, tc.to)
		require.NoError(t, err, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, tc.to, got)
	}
}

func TestNextStatus_RejectsEverythingElse(t *testing.T) {
	allowed := map[[2]enums.OrderStatus]bool{}
	for _, pair := range [][2]enums.OrderStatus{
		{enums.OrderStatusPending, enums.OrderStatusProcessing},
		{enums.OrderStatusPending, enums.OrderStatusCancelled},
		{enums.OrderStatusProcessing, enums.OrderStatusShipped},
		{enums.OrderStatusProcessing, enums.OrderStatusCancelled},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered},
	} {
		allowed[pair] = true
	}
	all := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	}
	for _, from := range all {
		for _, to := range all {
			if allowed[[2]enums.OrderStatus{from, to}] {
				continue
			}
			_, err := NextStatus(from, to)
			require.Error(t, err, "%s -> %s should be rejected", from, to)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
		}
	}
}

func TestNextStatus_UnknownStatus(t *testing.T) {
	_, err := NextStatus(enums.OrderStatusPending, enums.OrderStatus("returned"))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCanCancel(t *testing.T) {
	assert.True(t, CanCancel(enums.OrderStatusPending))
	assert.True(t, CanCancel(enums.OrderStatusProcessing))
	assert.False(t, CanCancel(enums.OrderStatusShipped))
	assert.False(t, CanCancel(enums.OrderStatusDelivered))
	assert.False(t, CanCancel(enums.OrderStatusCancelled))
}
