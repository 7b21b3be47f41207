package gobayeux

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketTransport is a Transport backed by a single gorilla/websocket
// connection. Requests are correlated to their replies by the Bayeux
// message id, not by read order: the session engine keeps a /meta/connect
// continuously outstanding while Subscribe/Unsubscribe/Publish/Disconnect
// can all issue requests of their own over the same connection, so more
// than one request is routinely in flight at once.
type WebsocketTransport struct {
	dialer        *websocket.Dialer
	serverAddress *url.URL

	conn  *websocket.Conn
	ready *atomic.Bool

	mu      sync.Mutex
	pending map[string]chan []Message
}

// NewWebsocketTransport builds a WebsocketTransport against serverAddress.
// If dialer is nil, websocket.DefaultDialer is used. The connection is not
// opened until Open is called.
func NewWebsocketTransport(dialer *websocket.Dialer, serverAddress string) (*WebsocketTransport, error) {
	parsedAddress, err := url.Parse(serverAddress)
	if err != nil {
		return nil, err
	}
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	return &WebsocketTransport{
		dialer:        dialer,
		serverAddress: parsedAddress,
		ready:         &atomic.Bool{},
		pending:       make(map[string]chan []Message),
	}, nil
}

// Request implements Transport. ms must carry a non-empty, unique id (every
// message produced by a single request builder's Build shares the one id);
// Request registers a waiter under that id before writing, so Listen can
// route the matching reply back to this call specifically, regardless of
// whatever else is outstanding on the same connection.
func (t *WebsocketTransport) Request(ctx context.Context, ms []Message) ([]Message, error) {
	if !t.ready.Load() {
		return nil, ErrNoTransport
	}
	if len(ms) == 0 || ms[0].ID == "" {
		return nil, ErrMissingRequestID
	}
	id := ms[0].ID

	reply := make(chan []Message, 1)
	t.mu.Lock()
	t.pending[id] = reply
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
	}()

	if err := t.conn.WriteJSON(ms); err != nil {
		return nil, TransportError{Err: err}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case messages := <-reply:
		return messages, nil
	}
}

// ConnectionType implements Transport.
func (t *WebsocketTransport) ConnectionType() string {
	return ConnectionTypeWebsocket
}

// Close implements Transport.
func (t *WebsocketTransport) Close() error {
	t.ready.Store(false)
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// Open implements PushTransport. It dials the server and returns once the
// connection is ready for Request and Listen, or once dialing has
// definitively failed.
func (t *WebsocketTransport) Open(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := t.dialer.DialContext(dialCtx, t.serverAddress.String(), nil)
	if err != nil {
		return TransportError{Err: err}
	}
	t.conn = conn
	t.ready.Store(true)
	return nil
}

// Listen implements PushTransport. It reads frames in a blocking loop
// until ctx is canceled or a read fails, forwarding any failure on errc.
// It does not reconnect on its own; the session engine's reconnect
// handling is responsible for calling Open and Listen again.
func (t *WebsocketTransport) Listen(ctx context.Context, errc chan<- error) {
	defer t.ready.Store(false)

	for {
		if ctx.Err() != nil {
			return
		}

		messageType, raw, err := t.conn.ReadMessage()
		if err != nil {
			errc <- TransportError{Err: err}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var messages []Message
		if err := json.Unmarshal(raw, &messages); err != nil {
			continue
		}

		t.deliver(messages)
	}
}

// deliver routes an inbound frame to whichever outstanding Request call it
// replies to, found by matching any message's id against the pending
// table. A frame that matches nothing outstanding is dropped rather than
// guessed at: misattributing a reply to the wrong caller is worse than
// losing one unsolicited frame.
func (t *WebsocketTransport) deliver(messages []Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, m := range messages {
		if reply, ok := t.pending[m.ID]; ok {
			delete(t.pending, m.ID)
			reply <- messages
			return
		}
	}
}

var (
	_ Transport     = (*WebsocketTransport)(nil)
	_ PushTransport = (*WebsocketTransport)(nil)
)
