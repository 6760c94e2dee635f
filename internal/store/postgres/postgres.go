// Package postgres provides a store.Store backed by PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parley-chat/parley-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS messages (
	id      BIGSERIAL PRIMARY KEY,
	room_id TEXT NOT NULL REFERENCES rooms(id),
	sender  TEXT NOT NULL,
	content TEXT NOT NULL,
	kind    TEXT NOT NULL DEFAULT 'TEXT',
	ts      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, id);

CREATE TABLE IF NOT EXISTS private_messages (
	id       BIGSERIAL PRIMARY KEY,
	sender   TEXT NOT NULL,
	receiver TEXT NOT NULL,
	content  TEXT NOT NULL,
	ts       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_private_pair ON private_messages(sender, receiver, ts);

CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore implements store.Store for PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store with a connection pool and applies
// the schema.
func New(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// ==== RoomStore implementation ====

// CreateRoom creates an empty room.
func (s *PostgresStore) CreateRoom(ctx context.Context, id string) (*store.Room, error) {
	room := &store.Room{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO rooms (id)
		VALUES ($1)
		RETURNING id, created_at
	`, id).Scan(&room.ID, &room.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, store.ErrRoomExists
		}
		return nil, fmt.Errorf("insert room: %w", err)
	}

	return room, nil
}

// GetRoom retrieves a room by id.
func (s *PostgresStore) GetRoom(ctx context.Context, id string) (*store.Room, error) {
	room := &store.Room{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, created_at FROM rooms WHERE id = $1
	`, id).Scan(&room.ID, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrRoomNotFound
		}
		return nil, fmt.Errorf("query room: %w", err)
	}

	return room, nil
}

// ==== HistoryStore implementation ====

// AppendMessage appends a message to its room's log.
func (s *PostgresStore) AppendMessage(ctx context.Context, msg *store.Message) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (room_id, sender, content, kind, ts)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, msg.RoomID, msg.Sender, msg.Content, msg.Kind, msg.Timestamp).Scan(&msg.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return store.ErrRoomNotFound
		}
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

// MessageCount returns the length of a room's log.
func (s *PostgresStore) MessageCount(ctx context.Context, roomID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages WHERE room_id = $1
	`, roomID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}

	return count, nil
}

// Messages returns the window [start, end) of a room's log.
func (s *PostgresStore) Messages(ctx context.Context, roomID string, start, end int) ([]store.Message, error) {
	if end <= start {
		return []store.Message{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, room_id, sender, content, kind, ts
		FROM messages
		WHERE room_id = $1
		ORDER BY id ASC
		LIMIT $2 OFFSET $3
	`, roomID, end-start, start)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]store.Message, 0, end-start)
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.Sender, &msg.Content, &msg.Kind, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// AppendPrivateMessage persists a private message.
func (s *PostgresStore) AppendPrivateMessage(ctx context.Context, pm *store.PrivateMessage) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO private_messages (sender, receiver, content, ts)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, pm.Sender, pm.Receiver, pm.Content, pm.Timestamp).Scan(&pm.ID)
	if err != nil {
		return fmt.Errorf("insert private message: %w", err)
	}

	return nil
}

// Conversation returns all private messages between a and b ascending by
// timestamp.
func (s *PostgresStore) Conversation(ctx context.Context, a, b string) ([]store.PrivateMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender, receiver, content, ts
		FROM private_messages
		WHERE (sender = $1 AND receiver = $2) OR (sender = $2 AND receiver = $1)
		ORDER BY ts ASC, id ASC
	`, a, b)
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	defer rows.Close()

	var messages []store.PrivateMessage
	for rows.Next() {
		var pm store.PrivateMessage
		if err := rows.Scan(&pm.ID, &pm.Sender, &pm.Receiver, &pm.Content, &pm.Timestamp); err != nil {
			return nil, fmt.Errorf("scan private message: %w", err)
		}
		messages = append(messages, pm)
	}

	return messages, rows.Err()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	user := &store.User{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, created_at
	`, username, passwordHash).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, store.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	user := &store.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users WHERE username = $1
	`, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return user, nil
}

// SearchUsers returns users whose username contains the query.
func (s *PostgresStore) SearchUsers(ctx context.Context, query string) ([]*store.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username ILIKE '%' || $1 || '%'
		ORDER BY username ASC
		LIMIT 50
	`, query)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users := []*store.User{}
	for rows.Next() {
		var user store.User
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}
