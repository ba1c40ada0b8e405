package orders

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOrderID(t *testing.T) {
	assert.Equal(t, "OC-2025-0001", FormatOrderID(2025, 1))
	assert.Equal(t, "OC-2025-0420", FormatOrderID(2025, 420))
	assert.Equal(t, "OC-2025-12345", FormatOrderID(2025, 12345))
}

func TestParseOrderSequence(t *testing.T) {
	seq, err := ParseOrderSequence("OC-2025-0042", 2025)
	require.NoError(t, err)
	assert.Equal(t, 42, seq)

	seq, err = ParseOrderSequence("OC-2025-10001", 2025)
	require.NoError(t, err)
	assert.Equal(t, 10001, seq)

	for _, id := range []string{"OC-2024-0001", "OC-2025-", "OC-2025-00A1", "PO-2025-0001", "OC-2025-0000"} {
		_, err := ParseOrderSequence(id, 2025)
		assert.Truef(t, errors.Is(err, ErrInvalidOrderID), "expected ErrInvalidOrderID for %q, got %v", id, err)
	}
}

func TestNextOrderID(t *testing.T) {
	next, err := NextOrderID(2025, "")
	require.NoError(t, err)
	assert.Equal(t, "OC-2025-0001", next)

	next, err = NextOrderID(2025, "OC-2025-0009")
	require.NoError(t, err)
	assert.Equal(t, "OC-2025-0010", next)

	next, err = NextOrderID(2025, "OC-2025-9999")
	require.NoError(t, err)
	assert.Equal(t, "OC-2025-10000", next)

	_, err = NextOrderID(2025, "OC-2025-abcd")
	assert.ErrorIs(t, err, ErrInvalidOrderID)
}

func TestIsOrderIDCollision(t *testing.T) {
	assert.True(t, isOrderIDCollision(errors.New("UNIQUE constraint failed: purchase_orders.id")))
	assert.True(t, isOrderIDCollision(errors.New(`ERROR: duplicate key value violates unique constraint "purchase_orders_pkey"`)))
	assert.False(t, isOrderIDCollision(errors.New("UNIQUE constraint failed: suppliers.ruc")))
	assert.False(t, isOrderIDCollision(nil))
}
