package server

import (
	"encoding/json"
	"time"
)

// Inbound event names accepted on an open connection.
const (
	EventAddUser           = "addUser"
	EventSendMessage       = "sendMessage"
	EventMessageSeen       = "messageSeen"
	EventUpdateLastMessage = "updateLastMessage"
	EventLog               = "log"
)

// Outbound event names pushed to connections.
const (
	EventGetUsers       = "getUsers"
	EventGetMessage     = "getMessage"
	EventGetLastMessage = "getLastMessage"
	EventDatas          = "datas"
)

// ClientEvent is the envelope for every inbound frame: a named event
// plus its raw payload, decoded per event.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type SendMessagePayload struct {
	SenderId   string   `json:"senderId" validate:"required"`
	ReceiverId string   `json:"receiverId" validate:"required"`
	Text       string   `json:"text" validate:"required"`
	Images     []string `json:"images"`
}

type MessageSeenPayload struct {
	SenderId   string `json:"senderId"`
	ReceiverId string `json:"receiverId"`
	MessageId  string `json:"messageId"`
}

// LastMessagePayload is relayed verbatim: the fields stay raw so the
// server never depends on their shape.
type LastMessagePayload struct {
	LastMessage    json.RawMessage `json:"lastMessage"`
	LastMessagesId json.RawMessage `json:"lastMessagesId"`
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
