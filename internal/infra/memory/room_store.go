package memory

import (
	"sync"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
)

// RoomStore is an in-memory implementation of app.RoomRepository.
type RoomStore struct {
	codes app.CodeGenerator
	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore() *RoomStore {
	return NewRoomStoreWithCodes(app.NewCodeGenerator())
}

// NewRoomStoreWithCodes lets tests control code generation.
func NewRoomStoreWithCodes(codes app.CodeGenerator) *RoomStore {
	return &RoomStore{
		codes: codes,
		rooms: make(map[string]*app.Room),
	}
}

func (s *RoomStore) Create(settings domain.RoomSettings, creator domain.Player) (*app.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for attempt := 0; attempt < app.MaxCodeAttempts; attempt++ {
		code := s.codes()
		if _, taken := s.rooms[code]; taken {
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
	delete(s.rooms, code)
}

// Len reports how many rooms are live.
func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
