package relay

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/onra/voice/internal/domain"
)

func (r *Relay) handleJoinRoom(sess *Session, data []byte) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID <= 0 {
		log.Warn().Str("module", "relay").Int("user", int(sess.userID)).Msg("bad join payload")
		r.sendError(sess.conn, "Invalid room id")
		return
	}
	room := domain.RoomID(p.RoomID)

	others := r.rooms.Participants(room)
	r.rooms.Join(room, sess.userID)
	log.Info().Str("module", "relay").Int("user", int(sess.userID)).Int("room", int(room)).Msg("joined room")

	notice := membershipOut{Type: MsgUserJoined, UserID: sess.userID, RoomID: room}
	for _, uid := range others {
		if uid == sess.userID {
			continue
		}
		if conn, ok := r.registry.Get(uid); ok {
			r.sendJSON(conn, notice)
		}
	}

	// Ack with the peers already present so the joiner can negotiate
	// without a follow-up participants query.
	r.sendJSON(sess.conn, participantsOut{Type: MsgRoomJoined, RoomID: room, Participants: others})
}

func (r *Relay) handleLeaveRoom(sess *Session, data []byte) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID <= 0 {
		log.Warn().Str("module", "relay").Int("user", int(sess.userID)).Msg("bad leave payload")
		r.sendError(sess.conn, "Invalid room id")
		return
	}
	room := domain.RoomID(p.RoomID)

	if !r.rooms.Leave(room, sess.userID) {
		return
	}
	log.Info().Str("module", "relay").Int("user", int(sess.userID)).Int("room", int(room)).Msg("left room")
	r.notifyRoom(room, membershipOut{Type: MsgUserLeft, UserID: sess.userID, RoomID: room})
}

// handleGetParticipants is a point query with no side effects. Like the
// rest of the query register it is best-effort: an unmatchable room id
// reads as an unknown room and yields an empty list, not an error.
func (r *Relay) handleGetParticipants(sess *Session, data []byte) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID <= 0 {
		r.sendJSON(sess.conn, participantsOut{Type: MsgParticipants, Participants: []domain.UserID{}})
		return
	}
	room := domain.RoomID(p.RoomID)
	r.sendJSON(sess.conn, participantsOut{
		Type:         MsgParticipants,
		RoomID:       room,
		Participants: r.rooms.Participants(room),
	})
}
