package domain

import "errors"

const MaxRoomNameLen = 36

var ErrRoomNameEmpty = errors.New("room name empty")

// RoomID 0 is reserved: it means "no room" on a user record and
// "all rooms" in a broadcast scope.
type RoomID int

type Room struct {
	ID   RoomID `json:"id"`
	Name string `json:"name"`
}

func NewRoom(name string) (*Room, error) {
	if len(name) == 0 {
		return nil, ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		name = name[:MaxRoomNameLen]
	}
	return &Room{Name: name}, nil
}
