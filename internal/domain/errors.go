package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room code is unknown.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when a join would exceed the room capacity.
	ErrRoomFull = errors.New("room is full")
	// ErrWrongPhase is returned when an operation does not apply to the room's current status.
	ErrWrongPhase = errors.New("room is not accepting this action right now")
	// ErrNotHost is returned when a non-host attempts a host-only action.
	ErrNotHost = errors.New("only the host can do that")
	// ErrAlreadyInRoom is returned when a connection joins a room it already belongs to.
	ErrAlreadyInRoom = errors.New("already in room")
	// ErrCategoryNotFound indicates the question bank has no questions for a category.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCodeSpaceExhausted is returned when no free room code could be generated.
	ErrCodeSpaceExhausted = errors.New("could not allocate a room code")
)
