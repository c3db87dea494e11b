package memory

import (
	"errors"
	"testing"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
)

func TestRoomStoreLifecycle(t *testing.T) {
	store := NewRoomStore()

	room, err := store.Create(domain.RoomSettings{Category: "maths", MaxPlayers: 4, QuestionsCount: 2}, domain.Player{ConnectionID: "c1", Name: "Alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(room.Code()) != 6 {
		t.Fatalf("expected 6 character code, got %q", room.Code())
	}
	if _, ok := store.Get(room.Code()); !ok {
		t.Fatalf("expected room present")
	}

	store.Delete(room.Code())
	if _, ok := store.Get(room.Code()); ok {
		t.Fatalf("expected room removed")
	}
	store.Delete(room.Code())
}

func TestRoomStoreRetriesOnCollision(t *testing.T) {
	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	next := 0
	store := NewRoomStoreWithCodes(func() string {
		code := codes[next]
		next++
		return code
	})

	first, err := store.Create(domain.RoomSettings{MaxPlayers: 4}, domain.Player{ConnectionID: "c1"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := store.Create(domain.RoomSettings{MaxPlayers: 4}, domain.Player{ConnectionID: "c2"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.Code() != "AAAAAA" || second.Code() != "BBBBBB" {
		t.Fatalf("expected AAAAAA then BBBBBB, got %s and %s", first.Code(), second.Code())
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 rooms, got %d", store.Len())
	}
}

func TestRoomStoreGivesUpWhenCodesExhausted(t *testing.T) {
	store := NewRoomStoreWithCodes(func() string { return "ZZZZZZ" })
	if _, err := store.Create(domain.RoomSettings{MaxPlayers: 4}, domain.Player{ConnectionID: "c1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := store.Create(domain.RoomSettings{MaxPlayers: 4}, domain.Player{ConnectionID: "c2"})
	if !errors.Is(err, domain.ErrCodeSpaceExhausted) {
		t.Fatalf("expected exhausted error, got %v", err)
	}
}

func TestCodeGeneratorAlphabet(t *testing.T) {
	gen := app.NewCodeGenerator()
	for i := 0; i < 200; i++ {
		code := gen()
		if len(code) != 6 {
			t.Fatalf("expected length 6, got %q", code)
		}
		for _, c := range code {
			if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
				t.Fatalf("unexpected character %q in %q", c, code)
			}
		}
	}
}
