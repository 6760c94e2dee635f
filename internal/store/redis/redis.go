// Package redis provides a store.Store backed by Redis. Room logs are
// RPUSH lists, so LLEN and LRANGE answer the count and window queries
// directly; conversations are sorted sets under a normalized pair key.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parley-chat/parley-server/internal/store"
)

// RedisStore implements store.Store for Redis.
type RedisStore struct {
	client *redis.Client
}

// New creates a new Redis store from a redis:// URL.
func New(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func roomKey(id string) string {
	return "room:" + id
}

func roomMessagesKey(id string) string {
	return fmt.Sprintf("room:%s:messages", id)
}

// conversationKey normalizes the pair so both directions share one key.
func conversationKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("dm:%s:%s", a, b)
}

func userKey(username string) string {
	return "user:" + username
}

// ==== RoomStore implementation ====

// CreateRoom creates an empty room.
func (s *RedisStore) CreateRoom(ctx context.Context, id string) (*store.Room, error) {
	now := time.Now().UTC()
	ok, err := s.client.SetNX(ctx, roomKey(id), now.Format(time.RFC3339Nano), 0).Result()
	if err != nil {
		return nil, fmt.Errorf("setnx room: %w", err)
	}
	if !ok {
		return nil, store.ErrRoomExists
	}

	return &store.Room{ID: id, CreatedAt: now}, nil
}

// GetRoom retrieves a room by id.
func (s *RedisStore) GetRoom(ctx context.Context, id string) (*store.Room, error) {
	val, err := s.client.Get(ctx, roomKey(id)).Result()
	if err == redis.Nil {
		return nil, store.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return nil, fmt.Errorf("parse room created_at: %w", err)
	}

	return &store.Room{ID: id, CreatedAt: createdAt}, nil
}

// ==== HistoryStore implementation ====

// AppendMessage appends a message to the room's list.
func (s *RedisStore) AppendMessage(ctx context.Context, msg *store.Message) error {
	if _, err := s.GetRoom(ctx, msg.RoomID); err != nil {
		return err
	}

	id, err := s.client.Incr(ctx, "seq:messages").Result()
	if err != nil {
		return fmt.Errorf("next message id: %w", err)
	}
	msg.ID = id

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := s.client.RPush(ctx, roomMessagesKey(msg.RoomID), data).Err(); err != nil {
		return fmt.Errorf("rpush message: %w", err)
	}

	return nil
}

// MessageCount returns the length of a room's list.
func (s *RedisStore) MessageCount(ctx context.Context, roomID string) (int, error) {
	n, err := s.client.LLen(ctx, roomMessagesKey(roomID)).Result()
	if err != nil {
		return 0, fmt.Errorf("llen messages: %w", err)
	}

	return int(n), nil
}

// Messages returns the window [start, end) of a room's list.
func (s *RedisStore) Messages(ctx context.Context, roomID string, start, end int) ([]store.Message, error) {
	if end <= start {
		return []store.Message{}, nil
	}

	// LRANGE bounds are inclusive.
	results, err := s.client.LRange(ctx, roomMessagesKey(roomID), int64(start), int64(end-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange messages: %w", err)
	}

	messages := make([]store.Message, 0, len(results))
	for _, data := range results {
		var msg store.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// AppendPrivateMessage persists a private message in the pair's sorted set.
func (s *RedisStore) AppendPrivateMessage(ctx context.Context, pm *store.PrivateMessage) error {
	id, err := s.client.Incr(ctx, "seq:private").Result()
	if err != nil {
		return fmt.Errorf("next private message id: %w", err)
	}
	pm.ID = id

	data, err := json.Marshal(pm)
	if err != nil {
		return fmt.Errorf("marshal private message: %w", err)
	}

	key := conversationKey(pm.Sender, pm.Receiver)
	err = s.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(pm.Timestamp.UnixMilli()),
		Member: string(data),
	}).Err()
	if err != nil {
		return fmt.Errorf("zadd private message: %w", err)
	}

	return nil
}

// Conversation returns all private messages between a and b ascending by
// timestamp.
func (s *RedisStore) Conversation(ctx context.Context, a, b string) ([]store.PrivateMessage, error) {
	results, err := s.client.ZRange(ctx, conversationKey(a, b), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange conversation: %w", err)
	}

	messages := make([]store.PrivateMessage, 0, len(results))
	for _, data := range results {
		var pm store.PrivateMessage
		if err := json.Unmarshal([]byte(data), &pm); err != nil {
			return nil, fmt.Errorf("unmarshal private message: %w", err)
		}
		messages = append(messages, pm)
	}

	return messages, nil
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *RedisStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	id, err := s.client.Incr(ctx, "seq:users").Result()
	if err != nil {
		return nil, fmt.Errorf("next user id: %w", err)
	}

	user := &store.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}

	// SetNX makes the concurrent-registration race lose cleanly instead of
	// overwriting the earlier account.
	ok, err := s.client.SetNX(ctx, userKey(username), data, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}
	if !ok {
		return nil, store.ErrUserExists
	}

	if err := s.client.SAdd(ctx, "users", username).Err(); err != nil {
		return nil, fmt.Errorf("index user: %w", err)
	}

	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *RedisStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	data, err := s.client.Get(ctx, userKey(username)).Result()
	if err == redis.Nil {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var user store.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}

	return &user, nil
}

// SearchUsers returns users whose username contains the query.
func (s *RedisStore) SearchUsers(ctx context.Context, query string) ([]*store.User, error) {
	usernames, err := s.client.SMembers(ctx, "users").Result()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	query = strings.ToLower(query)
	out := []*store.User{}
	for _, name := range usernames {
		if !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		user, err := s.GetUserByUsername(ctx, name)
		if err != nil {
			continue // removed between SMEMBERS and GET
		}
		out = append(out, user)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
