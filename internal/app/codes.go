package app

import (
	"math/rand"
	"sync"
	"time"
)

const (
	roomCodeLength   = 6
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// MaxCodeAttempts bounds collision retries when allocating a room code.
	MaxCodeAttempts = 32
)

// CodeGenerator yields candidate room codes. Uniqueness is the registry's job.
type CodeGenerator func() string

// NewCodeGenerator returns a goroutine-safe generator of 6-character uppercase alphanumeric codes.
func NewCodeGenerator() CodeGenerator {
	return NewCodeGeneratorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewCodeGeneratorWithSource allows deterministic codes in tests.
func NewCodeGeneratorWithSource(src rand.Source) CodeGenerator {
	rnd := rand.New(src)
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		buf := make([]byte, roomCodeLength)
		for i := range buf {
			buf[i] = roomCodeAlphabet[rnd.Intn(len(roomCodeAlphabet))]
		}
		return string(buf)
	}
}
