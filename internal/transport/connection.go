package transport

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"carelink/pkg/interfaces"
	"carelink/pkg/types"
)

// writeTimeout bounds each outbound frame write.
const writeTimeout = 5 * time.Second

// Options configures dialing and the transport-level reconnection policy.
type Options struct {
	URL               string
	DialTimeout       time.Duration
	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

// frame is the wire envelope in both directions.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Connection implements interfaces.Transport over a websocket
// ARCHITECTURAL DISCOVERY: Websocket writes must be serialized; a single
// writer goroutine drains a buffered channel so Emit never races
type Connection struct {
	id       string // Instance id, distinguishes redials in logs
	opts     Options
	identity types.Identity
	handler  interfaces.EventHandler

	mu      sync.RWMutex
	conn    *websocket.Conn
	writeCh chan []byte

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Dial opens a connection presenting the identity as credentials
// {userId, userType, userName} in the query string. The context bounds the
// initial handshake only.
func Dial(ctx context.Context, opts Options, identity types.Identity, handler interfaces.EventHandler) (*Connection, error) {
	conn, err := dialOnce(ctx, opts, identity)
	if err != nil {
		return nil, err
	}

	connCtx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:       uuid.New().String(),
		opts:     opts,
		identity: identity,
		handler:  handler,
		conn:     conn,
		writeCh:  make(chan []byte, 100), // Buffer prevents blocking UI callers during bursts
		ctx:      connCtx,
		cancel:   cancel,
	}

	go c.writeLoop()
	go c.readLoop()

	return c, nil
}

// dialOnce performs a single handshake attempt.
func dialOnce(ctx context.Context, opts Options, identity types.Identity) (*websocket.Conn, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, ErrInvalidServerURL
	}
	q := u.Query()
	q.Set("userId", identity.ID)
	q.Set("userType", identity.Role)
	q.Set("userName", identity.Name)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Emit sends a named event with a JSON-serializable payload.
func (c *Connection) Emit(event string, payload interface{}) error {
	select {
	case <-c.ctx.Done():
		return interfaces.ErrTransportClosed
	default:
	}

	data, err := json.Marshal(outboundFrame{Event: event, Data: payload})
	if err != nil {
		return ErrInvalidPayload
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-time.After(writeTimeout):
		return ErrWriteTimeout
	case <-c.ctx.Done():
		return interfaces.ErrTransportClosed
	}
}

// writeLoop is the single writer over the current socket. A write failure
// drops the frame; outbound traffic is best-effort while the read side
// drives reconnection.
func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			conn := c.current()
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Printf("Transport %s: set write deadline failed: %v", c.id, err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Transport %s: dropped outbound frame: %v", c.id, err)
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// readLoop decodes inbound frames and owns the reconnection policy
// FUNCTIONAL DISCOVERY: A server-initiated close is final and reported as
// such; only unexpected drops are retried, with bounded fixed backoff
func (c *Connection) readLoop() {
	for {
		_, data, err := c.current().ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
				return // Closed locally, nothing to report
			default:
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Transport %s: server closed connection", c.id)
				c.handler.HandleStatus(interfaces.StatusServerClosed)
				_ = c.Close()
				return
			}

			c.handler.HandleStatus(interfaces.StatusReconnecting)
			if c.redial() {
				c.handler.HandleStatus(interfaces.StatusReconnected)
				continue
			}

			select {
			case <-c.ctx.Done():
				return
			default:
			}
			c.handler.HandleStatus(interfaces.StatusFailed)
			_ = c.Close()
			return
		}

		event, ok := decodeEvent(data)
		if !ok {
			log.Printf("Transport %s: skipping malformed frame", c.id)
			continue
		}
		c.handler.HandleEvent(event)
	}
}

// redial retries the handshake with the original credentials, up to the
// configured attempt count with a fixed delay between attempts.
func (c *Connection) redial() bool {
	for attempt := 1; attempt <= c.opts.ReconnectAttempts; attempt++ {
		select {
		case <-time.After(c.opts.ReconnectDelay):
		case <-c.ctx.Done():
			return false
		}

		dialCtx, cancel := context.WithTimeout(c.ctx, c.opts.DialTimeout)
		conn, err := dialOnce(dialCtx, c.opts, c.identity)
		cancel()
		if err != nil {
			log.Printf("Transport %s: reconnect attempt %d/%d failed: %v",
				c.id, attempt, c.opts.ReconnectAttempts, err)
			continue
		}

		c.mu.Lock()
		old := c.conn
		c.conn = conn
		c.mu.Unlock()
		_ = old.Close()

		log.Printf("Transport %s: reconnected on attempt %d", c.id, attempt)
		return true
	}
	return false
}

// decodeEvent parses one inbound frame. List-valued payloads (the
// users-online list) are wrapped under an "items" key so the envelope
// stays uniform for consumers.
func decodeEvent(data []byte) (types.Event, bool) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil || f.Event == "" {
		return types.Event{}, false
	}

	event := types.Event{Name: f.Event}
	if len(f.Data) == 0 {
		return event, true
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(f.Data, &payload); err == nil {
		event.Payload = payload
		return event, true
	}

	var list []interface{}
	if err := json.Unmarshal(f.Data, &list); err == nil {
		event.Payload = map[string]interface{}{"items": list}
		return event, true
	}

	return types.Event{}, false
}

// current returns the active socket; it changes only across redials.
func (c *Connection) current() *websocket.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// Close tears down the connection. Safe to call more than once; no
// handler callback fires after Close returns on the closing goroutine.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.current().Close()
	})
	return err
}
