package gobayeux

import "context"

// Transport sends a batch of Bayeux messages to the server and returns the
// batch of messages the server replies with. Implementations are free to
// use whatever underlying connection type they want (WebSocket, a single
// HTTP POST, ...); the session engine only depends on this interface.
type Transport interface {
	// Request sends ms to the server and blocks for its reply batch.
	Request(ctx context.Context, ms []Message) ([]Message, error)

	// ConnectionType names the Bayeux connectionType this transport
	// implements, e.g. "websocket" or "long-polling".
	ConnectionType() string

	// Close releases any underlying connection. It is safe to call more
	// than once.
	Close() error
}

// PushTransport is implemented by transports that hold a persistent
// connection which must be opened before use and read continuously (a
// WebSocket, unlike a one-shot HTTP POST). The session engine calls Open
// once to establish the underlying connection, then runs Listen in its own
// goroutine to route each inbound frame to the outstanding Request call it
// replies to. A frame that replies to no outstanding request is not passed
// to the session.
type PushTransport interface {
	Transport

	// Open establishes the underlying connection and returns once it is
	// ready for Request and Listen, or once it has definitively failed.
	Open(ctx context.Context) error

	// Listen runs until ctx is canceled or the connection fails, sending
	// any failure on errc. Listen does not return until the connection
	// loop exits; call it from its own goroutine after Open succeeds.
	Listen(ctx context.Context, errc chan<- error)
}
