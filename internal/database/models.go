package database

import "time"

type User struct {
	Id        int
	UserId    string
	SocketId  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Message struct {
	Id         int
	ExternalId string
	SenderId   string
	ReceiverId string
	Body       string
	Images     []string
	Seen       bool
	CreatedAt  time.Time
}

type UpsertUserParams struct {
	UserId   string
	SocketId string
}

type CreateMessageParams struct {
	ExternalId string
	SenderId   string
	ReceiverId string
	Body       string
	Images     []string
}
