package relay

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// handleCallControl relays call-request / call-accepted / call-rejected /
// call-ended frames unchanged to the resolved target. The relay keeps no
// call state; pending/accepted/rejected live entirely in the clients.
func (r *Relay) handleCallControl(ctx context.Context, sess *Session, data []byte) {
	var p callControlPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "relay").Int("user", int(sess.userID)).Msg("bad call-control payload")
		return
	}

	if p.TargetUserID.AllAdmins {
		users, err := r.users.GetAllUsers(ctx)
		if err != nil {
			log.Error().Err(err).Str("module", "relay").Msg("admin resolution failed")
			r.sendError(sess.conn, "User lookup failed")
			return
		}
		for _, u := range users {
			if !u.IsAdmin() || u.ID == sess.userID {
				continue
			}
			if conn, ok := r.registry.Get(u.ID); ok {
				if err := conn.TrySend(Frame(data)); err != nil {
					log.Debug().Err(err).Str("module", "relay").Int("to", int(u.ID)).Msg("call-control send dropped")
				}
			}
		}
		return
	}

	conn, ok := r.registry.Get(p.TargetUserID.User)
	if !ok {
		// Target gone: silent drop, the caller's client times out.
		return
	}
	if err := conn.TrySend(Frame(data)); err != nil {
		log.Debug().Err(err).Str("module", "relay").Int("to", int(p.TargetUserID.User)).Msg("call-control send dropped")
	}
}
