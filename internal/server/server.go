package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/teris-io/shortid"

	"pairchat/internal/database"
	"pairchat/internal/stats"
	"pairchat/internal/types"
)

type stopReq struct {
	done chan struct{}
}

// ChatServer owns every live connection. Presence itself lives in the
// users table and is queried fresh on each event; the in-memory maps
// only route frames to open sockets.
type ChatServer struct {
	log               *log.Logger
	db                database.ChatRepository
	stats             stats.StatsProvider
	validate          *validator.Validate
	clients           map[*Client]struct{}
	socketMap         map[string]*Client
	clientsLock       sync.RWMutex
	RegisterChan      chan *Client
	deregisterChan    chan *Client
	stop              chan stopReq
	generateMessageId func() (string, error)
}

func NewChatServer(logger *log.Logger, db database.ChatRepository, statsProvider stats.StatsProvider) (*ChatServer, error) {
	sid, err := shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		return nil, err
	}

	cs := &ChatServer{
		log:               logger,
		db:                db,
		stats:             statsProvider,
		validate:          validator.New(),
		clients:           make(map[*Client]struct{}),
		socketMap:         make(map[string]*Client),
		RegisterChan:      make(chan *Client),
		deregisterChan:    make(chan *Client),
		stop:              make(chan stopReq),
		generateMessageId: sid.Generate,
	}

	for _, metric := range []string{"NumConnectedClients", "MessagesSent", "MessagesSeen", "DroppedEvents"} {
		cs.stats.RegisterMetric(metric)
	}

	return cs, nil
}

func (cs *ChatServer) Run() {
	for {
		select {
		case client := <-cs.RegisterChan:
			cs.log.Printf("client connected with socket id %q", client.socketId)
			cs.addClient(client)
			cs.stats.Incr("NumConnectedClients")
		case client := <-cs.deregisterChan:
			cs.log.Printf("client with socket id %q disconnected", client.socketId)
			cs.removeClient(client)
			cs.stats.Decr("NumConnectedClients")
			// the presence row is left as-is: only the user list is
			// re-announced, stale socket ids and all
			cs.broadcastUsers()
		case req := <-cs.stop:
			cs.log.Println("closing client connections")
			cs.clientsLock.Lock()
			for c := range cs.clients {
				c.stopClient()
			}
			cs.clientsLock.Unlock()

			close(req.done)
			return
		}
	}
}

func (cs *ChatServer) RegisterClient(c *Client) {
	cs.RegisterChan <- c
}

func (cs *ChatServer) addClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	cs.clients[c] = struct{}{}
	cs.socketMap[c.socketId] = c
}

func (cs *ChatServer) removeClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	delete(cs.clients, c)
	delete(cs.socketMap, c.socketId)
}

// broadcast queues an event on every connected client.
func (cs *ChatServer) broadcast(ev *ServerEvent) {
	cs.clientsLock.RLock()
	defer cs.clientsLock.RUnlock()

	for client := range cs.clients {
		if !client.queueEvent(ev) {
			cs.stats.Incr("DroppedEvents")
		}
	}
}

// sendToSocket queues an event on the client holding the given socket
// id. Delivery is fire and forget: a stale or unknown handle is a
// logged no-op.
func (cs *ChatServer) sendToSocket(socketId string, ev *ServerEvent) {
	cs.clientsLock.RLock()
	client, ok := cs.socketMap[socketId]
	cs.clientsLock.RUnlock()

	if !ok {
		cs.log.Printf("no connected client for socket %q, dropping event %q", socketId, ev.Event)
		return
	}

	if !client.queueEvent(ev) {
		cs.stats.Incr("DroppedEvents")
	}
}

// HandleEvent dispatches one inbound event from a client connection.
func (cs *ChatServer) HandleEvent(c *Client, ev *ClientEvent) {
	switch ev.Event {
	case EventAddUser:
		cs.handleAddUser(c, ev.Data)
	case EventSendMessage:
		cs.handleSendMessage(ev.Data)
	case EventMessageSeen:
		cs.handleMessageSeen(ev.Data)
	case EventUpdateLastMessage:
		cs.handleUpdateLastMessage(ev.Data)
	case EventLog:
		cs.handleLog(ev.Data)
	default:
		cs.log.Printf("unknown event %q from socket %q", ev.Event, c.socketId)
	}
}

// handleAddUser registers presence for the announced user id and
// re-broadcasts the full user list.
func (cs *ChatServer) handleAddUser(c *Client, data json.RawMessage) {
	var userId string
	if err := json.Unmarshal(data, &userId); err != nil {
		cs.log.Println("error parsing addUser payload:", err)
		return
	}

	if userId == "" {
		cs.log.Println("addUser with empty user id, dropping")
		return
	}

	if _, err := cs.db.UpsertUser(database.UpsertUserParams{
		UserId:   userId,
		SocketId: c.socketId,
	}); err != nil {
		cs.log.Println("error adding user:", err)
		return
	}

	cs.broadcastUsers()
}

// handleSendMessage persists a message and delivers it to the receiver
// if a presence row exists for them. Invalid payloads are dropped
// without notifying the sender.
func (cs *ChatServer) handleSendMessage(data json.RawMessage) {
	var payload SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		cs.log.Println("error parsing sendMessage payload:", err)
		return
	}

	if err := cs.validate.Struct(&payload); err != nil {
		cs.log.Printf("sendMessage missing required fields: %v", err)
		cs.stats.Incr("DroppedEvents")
		return
	}

	externalId, err := cs.generateMessageId()
	if err != nil {
		cs.log.Println("generate message id:", err)
		return
	}

	msg, err := cs.db.CreateMessage(database.CreateMessageParams{
		ExternalId: externalId,
		SenderId:   payload.SenderId,
		ReceiverId: payload.ReceiverId,
		Body:       payload.Text,
		Images:     payload.Images,
	})
	if err != nil {
		cs.log.Println("error saving message:", err)
		return
	}
	cs.stats.Incr("MessagesSent")

	receiver, err := cs.db.GetUserByUserId(payload.ReceiverId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			cs.log.Printf("user %q not found, message %q stored undelivered", payload.ReceiverId, msg.ExternalId)
		} else {
			cs.log.Println("error looking up receiver:", err)
		}
		return
	}

	cs.log.Printf("sending message to socket %q", receiver.SocketId)
	cs.sendToSocket(receiver.SocketId, &ServerEvent{
		Event: EventGetMessage,
		Data:  toWireMessage(msg),
	})
}

// handleMessageSeen flips the seen flag on a stored message and pushes
// a read receipt to the sender's socket.
func (cs *ChatServer) handleMessageSeen(data json.RawMessage) {
	var payload MessageSeenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		cs.log.Println("error parsing messageSeen payload:", err)
		return
	}

	if _, err := cs.db.GetMessageByExternalId(payload.MessageId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			cs.log.Printf("message %q not found for receiver %q", payload.MessageId, payload.ReceiverId)
		} else {
			cs.log.Println("error loading message:", err)
		}
		return
	}

	if _, err := cs.db.MarkMessageSeen(payload.MessageId); err != nil {
		cs.log.Println("error marking message as seen:", err)
		return
	}
	cs.stats.Incr("MessagesSeen")

	sender, err := cs.db.GetUserByUserId(payload.SenderId)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			cs.log.Println("error looking up sender:", err)
		}
		return
	}

	cs.sendToSocket(sender.SocketId, &ServerEvent{
		Event: EventMessageSeen,
		Data:  payload,
	})
}

// handleUpdateLastMessage relays a conversation-preview update to every
// connection. Nothing is persisted.
func (cs *ChatServer) handleUpdateLastMessage(data json.RawMessage) {
	var payload LastMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		cs.log.Println("error parsing updateLastMessage payload:", err)
		return
	}

	cs.broadcast(&ServerEvent{
		Event: EventGetLastMessage,
		Data:  payload,
	})
}

func (cs *ChatServer) handleLog(data json.RawMessage) {
	cs.log.Printf("log event: %s", data)

	var payload string
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	if payload == "as" {
		cs.broadcast(&ServerEvent{
			Event: EventDatas,
			Data:  payload,
		})
	}
}

// broadcastUsers announces the full presence list to every connection.
func (cs *ChatServer) broadcastUsers() {
	users, err := cs.db.ListUsers()
	if err != nil {
		cs.log.Println("error listing users:", err)
		return
	}

	cs.broadcast(&ServerEvent{
		Event: EventGetUsers,
		Data: lo.Map(users, func(u database.User, _ int) types.User {
			return types.User{
				UserId:   u.UserId,
				SocketId: u.SocketId,
			}
		}),
	})
}

func toWireMessage(msg database.Message) types.Message {
	return types.Message{
		Id:         msg.ExternalId,
		SenderId:   msg.SenderId,
		ReceiverId: msg.ReceiverId,
		Text:       msg.Body,
		Images:     msg.Images,
		Seen:       msg.Seen,
		CreatedAt:  msg.CreatedAt,
	}
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	req := stopReq{done: make(chan struct{})}

	select {
	case cs.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
