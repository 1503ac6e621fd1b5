package relay

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// handleSignal forwards an offer/answer/ICE-candidate to its target,
// verbatim except for the from field, which is rewritten to the sender's
// authenticated id. A missing target is a silent drop: signaling is
// best-effort and peers routinely vanish mid-negotiation.
func (r *Relay) handleSignal(sess *Session, data []byte) {
	var env signalEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "relay").Int("user", int(sess.userID)).Msg("bad signal payload")
		return
	}
	if env.To == 0 {
		return
	}
	conn, ok := r.registry.Get(env.To)
	if !ok {
		log.Debug().Str("module", "relay").Str("type", env.Type).Int("to", int(env.To)).Msg("signal target not connected")
		return
	}

	env.From = sess.userID
	r.sendJSON(conn, env)
}
