package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"trivia-room-service/internal/domain"
)

func TestRoomStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRoomStoreWithCodes(client, time.Minute, func() string { return "ROOM01" })

	room, err := store.Create(domain.RoomSettings{MaxPlayers: 4}, domain.Player{ConnectionID: "c1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("trivia:room:ROOM01") {
		t.Fatalf("expected redis key to be set")
	}
	if mr.TTL("trivia:room:ROOM01") != time.Minute {
		t.Fatalf("expected key ttl to be set")
	}

	store.Delete(room.Code())
	if mr.Exists("trivia:room:ROOM01") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestRoomStoreSkipsCodesReservedElsewhere(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	// Another instance already holds AAAAAA.
	if err := mr.Set("trivia:room:AAAAAA", "other"); err != nil {
		t.Fatalf("seed key: %v", err)
	}

	codes := []string{"AAAAAA", "BBBBBB"}
	next := 0
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRoomStoreWithCodes(client, time.Minute, func() string {
		code := codes[next]
		next++
		return code
	})

	room, err := store.Create(domain.RoomSettings{MaxPlayers: 4}, domain.Player{ConnectionID: "c1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if room.Code() != "BBBBBB" {
		t.Fatalf("expected BBBBBB, got %s", room.Code())
	}
	if _, ok := store.Get("AAAAAA"); ok {
		t.Fatalf("foreign reservation must not appear locally")
	}
}
