package database

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

const messageColumns = "id, external_id, sender_id, receiver_id, body, images, seen, created_at"

// UpsertUser registers presence for a user id. A new row is created on
// first registration; subsequent registrations overwrite the socket id
// (last write wins).
func (db *PgChatRepository) UpsertUser(params UpsertUserParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO users (user_id, socket_id, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $3) "+
			"ON CONFLICT (user_id) DO UPDATE SET socket_id = EXCLUDED.socket_id, updated_at = EXCLUDED.updated_at "+
			"RETURNING id, user_id, socket_id, created_at, updated_at",
		params.UserId,
		params.SocketId,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.UserId,
		&u.SocketId,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgChatRepository) GetUserByUserId(userId string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, socket_id, created_at, updated_at FROM users "+
			"WHERE user_id = $1 LIMIT 1",
		userId,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.UserId,
		&user.SocketId,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

func (db *PgChatRepository) ListUsers() ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, socket_id, created_at, updated_at FROM users ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users = make([]User, 0)
	for rows.Next() {
		var user User
		if err = rows.Scan(&user.Id, &user.UserId, &user.SocketId, &user.CreatedAt, &user.UpdatedAt); err != nil {
			break
		}

		users = append(users, user)
	}

	return users, err
}

func (db *PgChatRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	images := params.Images
	if images == nil {
		images = []string{}
	}

	res := db.conn.QueryRow(
		"INSERT INTO messages (external_id, sender_id, receiver_id, body, images, seen, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, FALSE, $6) RETURNING "+messageColumns,
		params.ExternalId,
		params.SenderId,
		params.ReceiverId,
		params.Body,
		pq.Array(images),
		time.Now().UTC(),
	)

	return scanMessage(res)
}

func (db *PgChatRepository) GetMessageByExternalId(externalId string) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT "+messageColumns+" FROM messages WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	return scanMessage(row)
}

// MarkMessageSeen flips the seen flag. The update is idempotent: marking
// an already-seen message writes the same value again.
func (db *PgChatRepository) MarkMessageSeen(externalId string) (Message, error) {
	row := db.conn.QueryRow(
		"UPDATE messages SET seen = TRUE WHERE external_id = $1 RETURNING "+messageColumns,
		externalId,
	)

	return scanMessage(row)
}

// GetConversation returns every message exchanged between the pair, in
// either direction, ordered by creation time.
func (db *PgChatRepository) GetConversation(senderId, receiverId string) ([]Message, error) {
	rows, err := db.conn.Query(
		"SELECT "+messageColumns+" FROM messages "+
			"WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1) "+
			"ORDER BY created_at, id",
		senderId,
		receiverId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages = make([]Message, 0)
	for rows.Next() {
		var (
			msg    Message
			images pq.StringArray
		)
		if err = rows.Scan(&msg.Id, &msg.ExternalId, &msg.SenderId, &msg.ReceiverId,
			&msg.Body, &images, &msg.Seen, &msg.CreatedAt); err != nil {
			break
		}

		msg.Images = []string(images)
		messages = append(messages, msg)
	}

	return messages, err
}

func scanMessage(row *sql.Row) (Message, error) {
	var (
		msg    Message
		images pq.StringArray
	)
	err := row.Scan(
		&msg.Id,
		&msg.ExternalId,
		&msg.SenderId,
		&msg.ReceiverId,
		&msg.Body,
		&images,
		&msg.Seen,
		&msg.CreatedAt,
	)

	msg.Images = []string(images)
	return msg, err
}
