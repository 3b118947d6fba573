package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const onlineTTL = 5 * time.Minute

// Store tracks per-room online users in redis. A nil *Store (or an
// unreachable redis) degrades every call to "nobody online" instead of
// failing the request; presence is decoration, not data.
type Store struct {
	client *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func onlineKey(roomID, userID string) string {
	return fmt.Sprintf("online:%s:%s", roomID, userID)
}

// SetOnline marks the user online in the room for the TTL window.
func (s *Store) SetOnline(ctx context.Context, roomID, userID string) error {
	if s == nil || s.client == nil {
		return nil
	}
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return s.client.SetEx(ctx, onlineKey(roomID, userID), ts, onlineTTL).Err()
}

// IsOnline reports whether a user's presence key is still live.
func (s *Store) IsOnline(ctx context.Context, roomID, userID string) (bool, error) {
	if s == nil || s.client == nil {
		return false, nil
	}
	n, err := s.client.Exists(ctx, onlineKey(roomID, userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// OnlineUser is one live presence entry in a room.
type OnlineUser struct {
	UserID   string `json:"user_id"`
	LastSeen int64  `json:"last_seen"`
}

// OnlineUsers scans the room's presence keys.
func (s *Store) OnlineUsers(ctx context.Context, roomID string) ([]OnlineUser, error) {
	if s == nil || s.client == nil {
		return nil, nil
	}
	pattern := fmt.Sprintf("online:%s:*", roomID)
	var users []OnlineUser
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := s.client.Get(ctx, key).Result()
		if err != nil {
			continue // key may have just expired
		}
		ts, _ := strconv.ParseInt(val, 10, 64)
		users = append(users, OnlineUser{
			UserID:   key[len(fmt.Sprintf("online:%s:", roomID)):],
			LastSeen: ts,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
