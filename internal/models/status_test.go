package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sda-shop/shop-backend/internal/apperr"
)

func TestParseOrderStatus(t *testing.T) {
	for token, want := range map[string]OrderStatus{
		"pending":   StatusPending,
		"Shipping":  StatusShipping,
		"SHIPPED":   StatusShipped,
		"Delivered": StatusDelivered,
		"cAnCeLeD":  StatusCanceled,
	} {
		got, err := ParseOrderStatus(token)
		require.NoError(t, err, token)
		require.Equal(t, want, got)
	}

	for _, token := range []string{"returned", "cancelled", "", "pending "} {
		_, err := ParseOrderStatus(token)
		require.Error(t, err, token)
		require.True(t, errors.Is(err, apperr.ErrInvalidInput))
	}
}
