package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"pairchat/internal/database"
	"pairchat/internal/server"
	"pairchat/internal/types"
)

type ConversationRequest struct {
	SenderId   string `json:"senderId"`
	ReceiverId string `json:"receiverId"`
}

type LoginRequest struct {
	UserId string `json:"userId"`
}

func (s *PairChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *PairChatApp) writeError(w http.ResponseWriter, errResp *ApiError) {
	s.writeJson(w, errResp.StatusCode, errResp.Envelope())
}

func (s *PairChatApp) greeting(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("hello"))
}

func (s *PairChatApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("health check:", err)
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.Write([]byte("OK"))
}

// conversation returns every message exchanged between the pair, in
// both directions, ordered by creation time.
func (s *PairChatApp) conversation(w http.ResponseWriter, r *http.Request) {
	var req ConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	messages, err := s.db.GetConversation(req.SenderId, req.ReceiverId)
	if err != nil {
		s.log.Println("get conversation:", err)
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, OK(lo.Map(messages, func(msg database.Message, _ int) types.Message {
		return types.Message{
			Id:         msg.ExternalId,
			SenderId:   msg.SenderId,
			ReceiverId: msg.ReceiverId,
			Text:       msg.Body,
			Images:     msg.Images,
			Seen:       msg.Seen,
			CreatedAt:  msg.CreatedAt,
		}
	})))
}

func (s *PairChatApp) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	user, err := s.db.GetUserByUserId(req.UserId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewUserNotFoundError())
		} else {
			s.log.Println("get user:", err)
			s.writeError(w, NewInternalServerError(err))
		}
		return
	}

	s.writeJson(w, http.StatusOK, OK(types.User{
		UserId:   user.UserId,
		SocketId: user.SocketId,
	}))
}

func (s *PairChatApp) getUsers(w http.ResponseWriter, _ *http.Request) {
	users, err := s.db.ListUsers()
	if err != nil {
		s.log.Println("list users:", err)
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, OK(lo.Map(users, func(u database.User, _ int) types.User {
		return types.User{
			UserId:   u.UserId,
			SocketId: u.SocketId,
		}
	})))
}

func (s *PairChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, "*") ||
				slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(conn, s.cs, s.log)

	s.cs.RegisterClient(client)
	go client.Write()
	go client.Read()
}
