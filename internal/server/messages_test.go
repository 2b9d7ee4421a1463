package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pairchat/internal/types"
)

func Test_serverEventSerialization(t *testing.T) {
	created := Now()
	ev := &ServerEvent{
		Event: EventGetMessage,
		Data: types.Message{
			Id:         "msg123",
			SenderId:   "u1",
			ReceiverId: "u2",
			Text:       "hello",
			Images:     []string{},
			CreatedAt:  created,
		},
	}

	bytes, err := json.Marshal(ev)
	assert.NoError(t, err, "expected no error during serialization")

	expected := `{"event":"getMessage","data":{"id":"msg123","senderId":"u1","receiverId":"u2",` +
		`"text":"hello","images":[],"seen":false,"createdAt":"` + created.Format(time.RFC3339Nano) + `"}}`
	assert.Equal(t, expected, string(bytes), "expected serialized event to match the wire format")
}

func Test_clientEventParsing(t *testing.T) {
	raw := []byte(`{"event":"sendMessage","data":{"senderId":"u1","receiverId":"u2","text":"hi","images":["a.png"]}}`)

	var ev ClientEvent
	err := json.Unmarshal(raw, &ev)
	assert.NoError(t, err, "expected no error parsing the envelope")
	assert.Equal(t, EventSendMessage, ev.Event)

	var payload SendMessagePayload
	err = json.Unmarshal(ev.Data, &payload)
	assert.NoError(t, err, "expected no error parsing the payload")
	assert.Equal(t, "u1", payload.SenderId)
	assert.Equal(t, "u2", payload.ReceiverId)
	assert.Equal(t, "hi", payload.Text)
	assert.Equal(t, []string{"a.png"}, payload.Images)
}

func TestNow(t *testing.T) {
	now := Now()
	assert.Equal(t, time.UTC, now.Location(), "expected Now to return UTC")
	assert.Equal(t, now, now.Round(time.Millisecond), "expected Now to be rounded to milliseconds")
}
