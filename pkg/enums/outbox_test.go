package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrencyNormalizesInput(t *testing.T) {
	c, err := ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, CurrencyUSD, c)

	_, err = ParseCurrency("BTC")
	assert.EqualError(t, err, `invalid currency "BTC"`)
}

func TestOutboxTypesRoundTripThroughParse(t *testing.T) {
	for _, e := range eventTypes {
		parsed, err := ParseOutboxEventType(string(e))
		require.NoError(t, err)
		assert.True(t, parsed.IsValid())
	}
	for _, a := range aggregateTypes {
		parsed, err := ParseOutboxAggregateType(string(a))
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}

	_, err := ParseOutboxEventType("Order_Created")
	assert.EqualError(t, err, `invalid event type "Order_Created"`)
	assert.False(t, OutboxAggregateType("invoice").IsValid())
}
