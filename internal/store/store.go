// Package store is the persistence collaborator for users, rooms and
// recordings. The relay and the REST API only see these interfaces; Mem
// is the in-memory reference backend.
package store

import (
	"context"
	"errors"

	"github.com/onra/voice/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrRoomNameTaken = errors.New("room name already taken")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	GetUser(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetAllUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	DeleteUser(ctx context.Context, id domain.UserID) error
}

type RoomStore interface {
	CreateRoom(ctx context.Context, r *domain.Room) (*domain.Room, error)
	GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	GetAllRooms(ctx context.Context) ([]*domain.Room, error)
	UpdateRoom(ctx context.Context, r *domain.Room) (*domain.Room, error)
	DeleteRoom(ctx context.Context, id domain.RoomID) error
}

type RecordingStore interface {
	CreateRecording(ctx context.Context, r *domain.Recording) (*domain.Recording, error)
	GetRecording(ctx context.Context, id string) (*domain.Recording, error)
	GetRecordings(ctx context.Context, userID domain.UserID) ([]*domain.Recording, error)
	DeleteRecording(ctx context.Context, id string) error
}

// Store is what the server wires together at startup.
type Store interface {
	UserStore
	RoomStore
	RecordingStore
}
