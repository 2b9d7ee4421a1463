package types

import (
	"time"
)

// User is the wire representation of a presence record: a stable user
// identifier paired with the socket id of its most recent connection.
type User struct {
	UserId   string `json:"userId"`
	SocketId string `json:"socketId"`
}

type Message struct {
	Id         string    `json:"id"`
	SenderId   string    `json:"senderId"`
	ReceiverId string    `json:"receiverId"`
	Text       string    `json:"text"`
	Images     []string  `json:"images"`
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"createdAt"`
}
