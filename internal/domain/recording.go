package domain

import (
	"errors"
	"time"
)

var ErrRecordingEmpty = errors.New("recording audio empty")

// Recording holds a captured push-to-talk clip. Audio is kept as the
// base64 string the client sent; the server never decodes it.
type Recording struct {
	ID        string    `json:"id"`
	UserID    UserID    `json:"userId"`
	RoomID    RoomID    `json:"roomId"`
	Audio     string    `json:"audio"`
	Duration  float64   `json:"duration,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewRecording(userID UserID, roomID RoomID, audio string) (*Recording, error) {
	if audio == "" {
		return nil, ErrRecordingEmpty
	}
	return &Recording{
		UserID:    userID,
		RoomID:    roomID,
		Audio:     audio,
		CreatedAt: time.Now(),
	}, nil
}
