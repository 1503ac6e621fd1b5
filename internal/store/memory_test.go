package store

import (
	"context"
	"errors"
	"testing"

	"github.com/onra/voice/internal/domain"
)

func TestUserCRUD(t *testing.T) {
	m := NewMem()
	ctx := context.Background()

	created, err := m.CreateUser(ctx, &domain.User{Username: "alice", Password: "pw", Role: domain.RoleUser, RoomID: 2})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != 1 {
		t.Fatalf("first user id = %d, want 1", created.ID)
	}

	if _, err := m.CreateUser(ctx, &domain.User{Username: "alice"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username: err = %v", err)
	}

	got, err := m.GetUser(ctx, created.ID)
	if err != nil || got.Username != "alice" || got.RoomID != 2 {
		t.Fatalf("GetUser: %+v, %v", got, err)
	}

	byName, err := m.GetUserByUsername(ctx, "alice")
	if err != nil || byName.ID != created.ID {
		t.Fatalf("GetUserByUsername: %+v, %v", byName, err)
	}

	got.RoomID = 5
	if _, err := m.UpdateUser(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, _ := m.GetUser(ctx, created.ID)
	if again.RoomID != 5 {
		t.Fatalf("update lost: %+v", again)
	}

	if err := m.DeleteUser(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := m.GetUser(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: err = %v", err)
	}
}

func TestGetUserReturnsCopy(t *testing.T) {
	m := NewMem()
	ctx := context.Background()
	created, _ := m.CreateUser(ctx, &domain.User{Username: "alice"})

	got, _ := m.GetUser(ctx, created.ID)
	got.Username = "mutated"

	fresh, _ := m.GetUser(ctx, created.ID)
	if fresh.Username != "alice" {
		t.Fatal("store handed out a shared pointer")
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	m := NewMem()
	ctx := context.Background()
	if err := m.Seed(ctx, "admin", "pw"); err != nil {
		t.Fatal(err)
	}
	if err := m.Seed(ctx, "admin", "pw"); err != nil {
		t.Fatal(err)
	}
	users, _ := m.GetAllUsers(ctx)
	if len(users) != 1 {
		t.Fatalf("want 1 user after double seed, got %d", len(users))
	}
	if users[0].Role != domain.RoleAdmin {
		t.Fatalf("seeded user role = %s", users[0].Role)
	}
}

func TestRoomCRUDAndAssignmentCleanup(t *testing.T) {
	m := NewMem()
	ctx := context.Background()

	room, err := m.CreateRoom(ctx, &domain.Room{Name: "ops"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.CreateRoom(ctx, &domain.Room{Name: "ops"}); !errors.Is(err, ErrRoomNameTaken) {
		t.Fatalf("duplicate room name: err = %v", err)
	}

	u, _ := m.CreateUser(ctx, &domain.User{Username: "alice", RoomID: room.ID})

	if err := m.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := m.GetUser(ctx, u.ID)
	if got.RoomID != 0 {
		t.Fatalf("deleting a room must clear assignments, got room %d", got.RoomID)
	}
}

func TestRecordings(t *testing.T) {
	m := NewMem()
	ctx := context.Background()

	r1, err := m.CreateRecording(ctx, &domain.Recording{UserID: 1, RoomID: 2, Audio: "QUJD"})
	if err != nil {
		t.Fatal(err)
	}
	if r1.ID == "" {
		t.Fatal("recording id must be assigned")
	}
	if _, err := m.CreateRecording(ctx, &domain.Recording{UserID: 2, Audio: "REVG"}); err != nil {
		t.Fatal(err)
	}

	all, _ := m.GetRecordings(ctx, 0)
	if len(all) != 2 {
		t.Fatalf("want 2 recordings, got %d", len(all))
	}
	mine, _ := m.GetRecordings(ctx, 1)
	if len(mine) != 1 || mine[0].ID != r1.ID {
		t.Fatalf("userId filter broken: %v", mine)
	}

	if err := m.DeleteRecording(ctx, r1.ID); err != nil {
		t.Fatal(err)
	}
	if err := m.DeleteRecording(ctx, r1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: err = %v", err)
	}
}
