package relay

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/onra/voice/internal/domain"
)

// handleBroadcast fans a push-to-talk frame out to its legitimate scope.
// The scope is re-derived from the sender's persisted role and room
// assignment; a client-supplied roomId is only honored for admins, so a
// regular user cannot impersonate a room-wide or global broadcast.
func (r *Relay) handleBroadcast(ctx context.Context, sess *Session, data []byte) {
	var p broadcastPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "relay").Int("user", int(sess.userID)).Msg("bad broadcast payload")
		return
	}

	sender, err := r.users.GetUser(ctx, sess.userID)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Int("user", int(sess.userID)).Msg("broadcast sender lookup failed")
		r.sendError(sess.conn, "User lookup failed")
		return
	}

	switch {
	case sender.IsAdmin() && p.DirectMessage && p.TargetUserID != 0:
		r.deliverDirect(sess, p)
	case p.TargetAdmins:
		r.deliverToAdmins(ctx, sess, p)
	case sender.IsAdmin() && p.RoomID != 0:
		r.deliverToRoom(ctx, sess, p.RoomID, p)
	case sender.IsAdmin():
		r.deliverGlobal(sess, p)
	default:
		// Non-admin scope is always the sender's own assigned room.
		if sender.RoomID == 0 {
			return
		}
		r.deliverToRoom(ctx, sess, sender.RoomID, p)
	}
}

// deliverDirect is admin-to-user direct talk: exactly one recipient.
func (r *Relay) deliverDirect(sess *Session, p broadcastPayload) {
	conn, ok := r.registry.Get(p.TargetUserID)
	if !ok {
		return
	}
	r.sendJSON(conn, adminBroadcastOut{
		Type:          MsgAdminBroadcast,
		Audio:         p.Audio,
		From:          sess.userID,
		VoiceEffect:   p.VoiceEffect,
		DirectMessage: true,
	})
	log.Debug().Str("module", "relay").Int("from", int(sess.userID)).Int("to", int(p.TargetUserID)).Msg("direct talk delivered")
}

// deliverToRoom sends to every connected user whose persisted room
// assignment is room, excluding the sender. A failed send never aborts
// delivery to the rest.
func (r *Relay) deliverToRoom(ctx context.Context, sess *Session, room domain.RoomID, p broadcastPayload) {
	users, err := r.users.GetAllUsers(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Msg("broadcast recipient lookup failed")
		r.sendError(sess.conn, "User lookup failed")
		return
	}

	out := broadcastOut{
		Type:        MsgBroadcast,
		UserID:      sess.userID,
		RoomID:      room,
		Audio:       p.Audio,
		VoiceEffect: p.VoiceEffect,
	}
	sent := 0
	for _, u := range users {
		if u.ID == sess.userID || u.RoomID != room {
			continue
		}
		if conn, ok := r.registry.Get(u.ID); ok {
			r.sendJSON(conn, out)
			sent++
		}
	}
	log.Debug().Str("module", "relay").Int("from", int(sess.userID)).Int("room", int(room)).Int("sent_to", sent).Msg("room broadcast")
}

// deliverGlobal is an admin broadcast to every other connected user.
func (r *Relay) deliverGlobal(sess *Session, p broadcastPayload) {
	out := adminBroadcastOut{
		Type:        MsgAdminBroadcast,
		Audio:       p.Audio,
		From:        sess.userID,
		VoiceEffect: p.VoiceEffect,
	}
	sent := 0
	for _, snap := range r.registry.Snapshot() {
		if snap.UserID == sess.userID {
			continue
		}
		r.sendJSON(snap.Conn, out)
		sent++
	}
	log.Debug().Str("module", "relay").Int("from", int(sess.userID)).Int("sent_to", sent).Msg("global broadcast")
}

// deliverToAdmins sends a user's frame to every connected admin.
func (r *Relay) deliverToAdmins(ctx context.Context, sess *Session, p broadcastPayload) {
	users, err := r.users.GetAllUsers(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Msg("admin recipient lookup failed")
		r.sendError(sess.conn, "User lookup failed")
		return
	}

	out := broadcastOut{
		Type:         MsgBroadcast,
		UserID:       sess.userID,
		Audio:        p.Audio,
		VoiceEffect:  p.VoiceEffect,
		TargetAdmins: true,
	}
	sent := 0
	for _, u := range users {
		if !u.IsAdmin() || u.ID == sess.userID {
			continue
		}
		if conn, ok := r.registry.Get(u.ID); ok {
			r.sendJSON(conn, out)
			sent++
		}
	}
	log.Debug().Str("module", "relay").Int("from", int(sess.userID)).Int("sent_to", sent).Msg("admin-targeted broadcast")
}
