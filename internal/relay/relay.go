// Package relay is the WebSocket signaling core: it binds sockets to user
// identities, tracks ephemeral room membership, and forwards call-control,
// WebRTC signaling and push-to-talk audio between connected clients.
package relay

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/onra/voice/internal/domain"
	"github.com/onra/voice/internal/store"
)

// UserDirectory is the slice of the user store the relay needs for auth
// validation, admin resolution and broadcast scope derivation.
type UserDirectory interface {
	GetUser(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetAllUsers(ctx context.Context) ([]*domain.User, error)
}

// Session is the relay-side state of one socket. The adapter calls
// HandleMessage serially from its read loop, so fields need no locking.
type Session struct {
	conn   Conn
	userID domain.UserID
	authed bool
}

func NewSession(conn Conn) *Session {
	return &Session{conn: conn}
}

func (s *Session) UserID() domain.UserID { return s.userID }
func (s *Session) Authenticated() bool   { return s.authed }

// Relay routes incoming frames. Registry and Membership are injected so
// tests can run isolated instances.
type Relay struct {
	users    UserDirectory
	registry *Registry
	rooms    *Membership
}

func New(users UserDirectory, registry *Registry, rooms *Membership) *Relay {
	return &Relay{users: users, registry: registry, rooms: rooms}
}

// HandleMessage dispatches one frame from sess by its type tag. Messages
// other than auth are rejected until the session is authenticated.
func (r *Relay) HandleMessage(ctx context.Context, sess *Session, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "relay").Msg("bad json")
		r.sendError(sess.conn, "Invalid message")
		return
	}

	if env.Type == MsgAuth {
		r.handleAuth(ctx, sess, data)
		return
	}
	if !sess.authed {
		r.sendError(sess.conn, "Not authenticated")
		return
	}

	switch env.Type {
	case MsgJoinRoom:
		r.handleJoinRoom(sess, data)
	case MsgLeaveRoom:
		r.handleLeaveRoom(sess, data)
	case MsgGetParticipants:
		r.handleGetParticipants(sess, data)
	case MsgOffer, MsgAnswer, MsgICECandidate:
		r.handleSignal(sess, data)
	case MsgCallRequest, MsgCallAccepted, MsgCallRejected, MsgCallEnded:
		r.handleCallControl(ctx, sess, data)
	case MsgBroadcast:
		r.handleBroadcast(ctx, sess, data)
	default:
		log.Warn().Str("module", "relay").Str("type", env.Type).Msg("unknown message type")
	}
}

// handleAuth binds the session to a known user. An unknown or malformed
// user id makes the connection unusable: error frame, then policy close.
func (r *Relay) handleAuth(ctx context.Context, sess *Session, data []byte) {
	var p authPayload
	if err := json.Unmarshal(data, &p); err != nil || p.UserID <= 0 {
		log.Warn().Str("module", "relay").Msg("malformed auth payload")
		r.sendError(sess.conn, "Invalid user id")
		sess.conn.CloseWithReason(ClosePolicyViolation, "invalid user id")
		return
	}

	uid := domain.UserID(p.UserID)
	user, err := r.users.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.sendError(sess.conn, "Unknown user")
			sess.conn.CloseWithReason(ClosePolicyViolation, "unknown user")
			return
		}
		log.Error().Err(err).Str("module", "relay").Int("user", int(uid)).Msg("user lookup failed")
		r.sendError(sess.conn, "User lookup failed")
		return
	}

	// Re-auth under a different id releases the old identity first, so
	// its registration and room memberships never outlive the switch.
	if sess.authed && sess.userID != uid {
		r.releaseIdentity(sess.userID, sess.conn)
	}

	sess.userID = uid
	sess.authed = true

	if prev, replaced := r.registry.Bind(uid, sess.conn); replaced {
		prev.CloseWithReason(CloseNormal, "session replaced")
	}

	log.Info().Str("module", "relay").Int("user", int(uid)).Str("username", user.Username).Msg("authenticated")
	r.sendJSON(sess.conn, authSuccessOut{Type: MsgAuthSuccess, UserID: uid, Username: user.Username})
}

// Disconnect releases everything sess held. The adapter guarantees it runs
// exactly once per connection, whoever initiated the close. If the user
// re-authenticated on another socket, the registration (and the room
// memberships it guards) belong to that socket and are left alone.
func (r *Relay) Disconnect(sess *Session) {
	if !sess.authed {
		return
	}
	if !r.releaseIdentity(sess.userID, sess.conn) {
		log.Debug().Str("module", "relay").Int("user", int(sess.userID)).Msg("stale socket disconnect, registration kept")
		return
	}
	log.Info().Str("module", "relay").Int("user", int(sess.userID)).Msg("disconnected")
}

// releaseIdentity tears down everything uid holds through conn: the
// registration and every room membership, with webrtc_user_left fanned
// out to the rooms it left. Reports false when conn was not uid's live
// registration, in which case nothing is touched.
func (r *Relay) releaseIdentity(uid domain.UserID, conn Conn) bool {
	if !r.registry.Unbind(uid, conn) {
		return false
	}
	for _, room := range r.rooms.RemoveEverywhere(uid) {
		r.notifyRoom(room, membershipOut{Type: MsgUserLeft, UserID: uid, RoomID: room})
	}
	return true
}

// notifyRoom delivers v to every current member of room.
func (r *Relay) notifyRoom(room domain.RoomID, v any) {
	for _, uid := range r.rooms.Participants(room) {
		if conn, ok := r.registry.Get(uid); ok {
			r.sendJSON(conn, v)
		}
	}
}

func (r *Relay) sendJSON(c Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Debug().Err(err).Str("module", "relay").Msg("send dropped")
	}
}

func (r *Relay) sendError(c Conn, msg string) {
	r.sendJSON(c, errorOut{Type: MsgError, Message: msg})
}
