package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
)

// RoomStore is a Redis-aware implementation of app.RoomRepository.
// Notes:
//   - Room state stays in a local map so handlers keep their in-process lock.
//   - Redis reserves room codes with SETNX, so instances sharing a Redis never
//     hand out the same code, and marks liveness with a TTL.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
	codes  app.CodeGenerator
	mu     sync.RWMutex
	rooms  map[string]*app.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return NewRoomStoreWithCodes(client, ttl, app.NewCodeGenerator())
}

func NewRoomStoreWithCodes(client *redis.Client, ttl time.Duration, codes app.CodeGenerator) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		codes:  codes,
		rooms:  make(map[string]*app.Room),
	}
}

func (s *RoomStore) Create(settings domain.RoomSettings, creator domain.Player) (*app.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := context.Background()
	for attempt := 0; attempt < app.MaxCodeAttempts; attempt++ {
		code := s.codes()
		if _, taken := s.rooms[code]; taken {
			continue
		}
		reserved, err := s.client.SetNX(ctx, s.key(code), creator.ConnectionID, s.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("reserve room code: %w", err)
		}
		if !reserved {
			continue
		}
		room := app.NewRoom(code, settings, creator)
		s.rooms[code] = room
		return room, nil
	}
	return nil, domain.ErrCodeSpaceExhausted
}

func (s *RoomStore) Get(code string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

func (s *RoomStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; !ok {
		return
	}
	delete(s.rooms, code)
	// best-effort release of the reservation
	_ = s.client.Del(context.Background(), s.key(code)).Err()
}

func (s *RoomStore) key(code string) string {
	return "trivia:room:" + code
}
