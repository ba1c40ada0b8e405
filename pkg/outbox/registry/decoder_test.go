package registry

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/procurement-backend/pkg/enums"
	"github.com/angelmondragon/procurement-backend/pkg/outbox/payloads"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderDeleted, 1, func(payload json.RawMessage) (any, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"order_id":"OC-2025-0003"}`)
	output, err := reg.Decode(enums.EventOrderDeleted, 1, input)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"order_id": "OC-2025-0003"}, output)

	_, err = reg.Decode(enums.EventOrderDeleted, 2, input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecoderNotRegistered))
}

func TestRegisterJSON(t *testing.T) {
	reg := NewDecoderRegistry()
	RegisterJSON[payloads.OrderDeletedEvent](reg, enums.EventOrderDeleted, 1)

	output, err := reg.Decode(enums.EventOrderDeleted, 1, json.RawMessage(`{"order_id":"OC-2025-0003","status":"Draft"}`))
	require.NoError(t, err)
	event, ok := output.(*payloads.OrderDeletedEvent)
	require.True(t, ok)
	assert.Equal(t, "OC-2025-0003", event.OrderID)

	_, err = reg.Decode(enums.EventOrderDeleted, 1, json.RawMessage(`{"order_id":`))
	assert.Error(t, err)
}
