// Package ws adapts gorilla/websocket sockets to relay sessions: one
// upgrade per /ws request, a read pump feeding the relay and a write pump
// draining the buffered send channel.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/onra/voice/internal/relay"
)

var ErrBackpressure = errors.New("backpressure")

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	Relay      *relay.Relay
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewController(r *relay.Relay, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{Relay: r, ReadLimit: readLimit, PingPeriod: pingPeriod}
}

// wsConn implements relay.Conn. TrySend never blocks: a full send channel
// is a slow consumer and the frame is dropped, stale audio is never queued.
type wsConn struct {
	conn *websocket.Conn
	send chan relay.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f relay.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

func (c *wsConn) CloseWithReason(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.Close()
}

// Handle upgrades the request and runs the session until the socket dies.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	socket, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "adapters.ws").Str("remote", socket.RemoteAddr().String()).Msg("new WS connection")

	if ctl.ReadLimit > 0 {
		socket.SetReadLimit(ctl.ReadLimit)
	}

	conn := &wsConn{
		conn: socket,
		send: make(chan relay.Frame, 32),
	}
	sess := relay.NewSession(conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sess, conn)
}

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump owns the session teardown: it runs once per connection, so the
// deferred Disconnect runs exactly once whoever closed the socket.
func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, sess *relay.Session, c *wsConn) {
	defer func() {
		cancel()
		c.Close()
		ctl.Relay.Disconnect(sess)
		log.Info().Str("module", "adapters.ws").Int("user", int(sess.UserID())).Msg("readPump closing")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "adapters.ws").Msg("readPump read error")
				}
				return
			}
			ctl.Relay.HandleMessage(ctx, sess, data)
		}
	}
}
