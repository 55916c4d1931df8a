package room

import "errors"

var (
	// ErrRoomNotFound is returned when no room exists for the given id.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomFull is returned when a non-spectator tries to join a room whose
	// protagonist slots are all taken.
	ErrRoomFull = errors.New("room is full")

	// ErrCardLimit is returned when a player hits the per-phase acquisition
	// quota. It is reported to the requesting player only, never broadcast.
	ErrCardLimit = errors.New("card acquisition limit reached")
)
