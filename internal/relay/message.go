package relay

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/onra/voice/internal/domain"
)

// Frame is a raw JSON payload ready for the wire.
type Frame []byte

// Conn is a transport endpoint the relay delivers frames to.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(Frame) error
	Close()
	// CloseWithReason sends a close frame with the given status code
	// (RFC 6455 section 7.4) before tearing the connection down.
	CloseWithReason(code int, reason string)
}

// RFC 6455 close codes used by the relay.
const (
	CloseNormal          = 1000
	ClosePolicyViolation = 1008
)

// Message type tags. Client to server unless noted.
const (
	MsgAuth        = "auth"
	MsgAuthSuccess = "auth_success" // server to client
	MsgError       = "error"        // server to client

	MsgJoinRoom        = "webrtc_join_room"
	MsgLeaveRoom       = "webrtc_leave_room"
	MsgGetParticipants = "webrtc_get_participants"
	MsgParticipants    = "webrtc_participants" // server to client
	MsgRoomJoined      = "webrtc_room_joined"  // server to client
	MsgUserJoined      = "webrtc_user_joined"  // server to client
	MsgUserLeft        = "webrtc_user_left"    // server to client

	MsgOffer        = "webrtc_offer"
	MsgAnswer       = "webrtc_answer"
	MsgICECandidate = "webrtc_ice_candidate"

	MsgCallRequest  = "call-request"
	MsgCallAccepted = "call-accepted"
	MsgCallRejected = "call-rejected"
	MsgCallEnded    = "call-ended"

	MsgBroadcast      = "broadcast"
	MsgAdminBroadcast = "admin-broadcast" // server to client
)

// Target is the resolved destination of a call-control message. The wire
// form is either a numeric user id or the literal "admin", which fans out
// to every connected admin. Parsing the sentinel here keeps the string out
// of the routing logic.
type Target struct {
	User      domain.UserID
	AllAdmins bool
}

func (t *Target) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "admin" {
			*t = Target{AllAdmins: true}
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid target %q", s)
		}
		*t = Target{User: domain.UserID(n)}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid target: %s", data)
	}
	*t = Target{User: domain.UserID(n)}
	return nil
}

// intField tolerates ids arriving as JSON numbers or numeric strings.
type intField int

func (f *intField) UnmarshalJSON(data []byte) error {
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("not a number: %s", data)
		}
		num = json.Number(s)
	}
	n, err := strconv.Atoi(num.String())
	if err != nil {
		return fmt.Errorf("not a number: %s", data)
	}
	*f = intField(n)
	return nil
}

type authPayload struct {
	UserID intField `json:"userId"`
}

type roomPayload struct {
	RoomID intField `json:"roomId"`
}

// signalEnvelope covers webrtc_offer / webrtc_answer / webrtc_ice_candidate.
// The payload fields stay raw so forwarding is byte-preserving.
type signalEnvelope struct {
	Type      string          `json:"type"`
	To        domain.UserID   `json:"to,omitempty"`
	From      domain.UserID   `json:"from,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

type callControlPayload struct {
	TargetUserID Target `json:"targetUserId"`
}

type broadcastPayload struct {
	RoomID        domain.RoomID `json:"roomId,omitempty"`
	Audio         string        `json:"audio"`
	VoiceEffect   string        `json:"voiceEffect,omitempty"`
	TargetUserID  domain.UserID `json:"targetUserId,omitempty"`
	DirectMessage bool          `json:"directMessage,omitempty"`
	FromAdmin     bool          `json:"fromAdmin,omitempty"`
	TargetAdmins  bool          `json:"targetAdmins,omitempty"`
}

type broadcastOut struct {
	Type         string        `json:"type"`
	UserID       domain.UserID `json:"userId"`
	RoomID       domain.RoomID `json:"roomId,omitempty"`
	Audio        string        `json:"audio"`
	VoiceEffect  string        `json:"voiceEffect,omitempty"`
	TargetAdmins bool          `json:"targetAdmins,omitempty"`
}

type adminBroadcastOut struct {
	Type          string        `json:"type"`
	Audio         string        `json:"audio"`
	From          domain.UserID `json:"from"`
	VoiceEffect   string        `json:"voiceEffect,omitempty"`
	DirectMessage bool          `json:"directMessage,omitempty"`
}

type errorOut struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type authSuccessOut struct {
	Type     string        `json:"type"`
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

type membershipOut struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
	RoomID domain.RoomID `json:"roomId,omitempty"`
}

type participantsOut struct {
	Type         string          `json:"type"`
	RoomID       domain.RoomID   `json:"roomId"`
	Participants []domain.UserID `json:"participants"`
}
