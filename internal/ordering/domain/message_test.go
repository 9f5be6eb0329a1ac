package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressMapping(t *testing.T) {
	cases := []struct {
		stage   MessageType
		percent int
	}{
		{OrderCreated, 25},
		{OrderAcknowledged, 50},
		{DoenerAssigned, 75},
		{InvoiceCreated, 100},
	}
	for _, tc := range cases {
		percent, ok := tc.stage.Progress()
		require.True(t, ok, "stage %s", tc.stage)
		assert.Equal(t, tc.percent, percent, "stage %s", tc.stage)
	}

	_, ok := MessageType("").Progress()
	assert.False(t, ok, "initial state renders no progress bar")
	_, ok = MessageType("ORDER_SHIPPED").Progress()
	assert.False(t, ok)
}

func TestDecodeBackendFrame(t *testing.T) {
	// A frame exactly as the backend emits it, including the zone-less
	// Python isoformat timestamp.
	raw := `{
		"correlation_id": "5d2c3a6e-0001-4a34-9d7a-1f0a36c2d9aa",
		"order_id": "8e7a1a8e-0c2b-4f31-9f4e-5b1f2d3c4e5f",
		"timestamp": "2024-05-04T18:30:12.123456",
		"message_type": "DOENER_ASSIGNED",
		"payload": {
			"shop": {"id": "shop2", "name": "King Döner", "price": 7.5},
			"price": 7.5,
			"status": "Shop assigned"
		},
		"version": "1.0",
		"error": null
	}`

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	require.NoError(t, msg.Validate())

	assert.Equal(t, DoenerAssigned, msg.MessageType)
	assert.False(t, msg.IsError())
	require.NotNil(t, msg.Payload.Shop)
	assert.Equal(t, Shop{ID: "shop2", Name: "King Döner", Price: 7.5}, *msg.Payload.Shop)
	assert.Equal(t, 2024, msg.Timestamp.Year())
}

func TestDecodeBackendFailureFrame(t *testing.T) {
	// A failure notification exactly as the doener service publishes it and
	// the frontend relays it: a *_FAILED message type with the error set.
	raw := `{
		"correlation_id": "5d2c3a6e-0002-4a34-9d7a-1f0a36c2d9aa",
		"order_id": "8e7a1a8e-0c2b-4f31-9f4e-5b1f2d3c4e5f",
		"timestamp": "2024-05-04T18:31:02.123456",
		"message_type": "DOENER_ASSIGNMENT_FAILED",
		"payload": {"status": "FAILED"},
		"version": "1.0",
		"error": {"message": "No available shops found", "status_code": 500}
	}`

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	require.NoError(t, msg.Validate(), "failure notifications must pass structural validation")

	assert.True(t, msg.IsError())
	assert.Equal(t, "No available shops found", msg.Error.Message)
	_, ok := msg.MessageType.Progress()
	assert.False(t, ok, "failure types carry no progress percentage")
}

func TestValidate(t *testing.T) {
	valid := UpdateMessage{
		CorrelationID: "c1",
		MessageType:   OrderCreated,
		OrderID:       "o1",
		Version:       "1.0",
	}
	require.NoError(t, valid.Validate())

	t.Run("missing order id", func(t *testing.T) {
		msg := valid
		msg.OrderID = "  "
		assert.ErrorIs(t, msg.Validate(), ErrMissingOrderID)
	})

	t.Run("unknown message type", func(t *testing.T) {
		msg := valid
		msg.MessageType = "ORDER_TELEPORTED"
		assert.ErrorIs(t, msg.Validate(), ErrUnknownMessageType)
	})

	t.Run("failure notification types accepted when error is set", func(t *testing.T) {
		for _, mt := range []MessageType{
			"ORDER_CREATION_FAILED",
			"DOENER_ASSIGNMENT_FAILED",
			"INVOICE_CREATION_FAILED",
		} {
			msg := valid
			msg.MessageType = mt
			msg.Error = &ErrorInfo{Message: "No available shops found", StatusCode: 500}
			assert.NoError(t, msg.Validate(), "type %s", mt)
		}
	})

	t.Run("missing message type", func(t *testing.T) {
		msg := valid
		msg.MessageType = ""
		assert.ErrorIs(t, msg.Validate(), ErrUnknownMessageType)
	})

	t.Run("future schema major rejected", func(t *testing.T) {
		msg := valid
		msg.Version = "2.0"
		assert.ErrorIs(t, msg.Validate(), ErrUnsupportedVersion)
	})

	t.Run("legacy frontend version accepted", func(t *testing.T) {
		msg := valid
		msg.Version = "0.0"
		assert.NoError(t, msg.Validate())
	})

	t.Run("empty version accepted", func(t *testing.T) {
		msg := valid
		msg.Version = ""
		assert.NoError(t, msg.Validate())
	})

	t.Run("negative shop price rejected", func(t *testing.T) {
		msg := valid
		msg.Payload.Shop = &Shop{ID: "s1", Name: "Laden", Price: -1}
		assert.Error(t, msg.Validate())
	})
}

func TestTimestampFormats(t *testing.T) {
	t.Run("rfc3339", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(`"2024-05-04T18:30:12Z"`), &ts))
		assert.Equal(t, time.Date(2024, 5, 4, 18, 30, 12, 0, time.UTC), ts.Time)
	})

	t.Run("python isoformat without zone", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(`"2024-05-04T18:30:12.000001"`), &ts))
		assert.Equal(t, 2024, ts.Year())
	})

	t.Run("empty", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(`""`), &ts))
		assert.True(t, ts.IsZero())
	})

	t.Run("garbage", func(t *testing.T) {
		var ts Timestamp
		assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	})

	t.Run("marshal is rfc3339", func(t *testing.T) {
		ts := Timestamp{Time: time.Date(2024, 5, 4, 18, 30, 12, 0, time.UTC)}
		data, err := json.Marshal(ts)
		require.NoError(t, err)
		assert.Equal(t, `"2024-05-04T18:30:12Z"`, string(data))
	})
}

func TestDisplayText(t *testing.T) {
	assert.Equal(t, "Bestellung aufgegeben", OrderCreated.DisplayText())
	assert.Equal(t, "Rechnung erstellt", InvoiceCreated.DisplayText())
	assert.Empty(t, MessageType("").DisplayText())
}
