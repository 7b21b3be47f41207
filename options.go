package gobayeux

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Options holds every configurable aspect of a Session. It is only ever
// constructed and mutated through Option functions passed to NewSession.
type Options struct {
	Logger Logger

	HTTPClient       *http.Client
	HTTPRoundTripper http.RoundTripper
	Dialer           *websocket.Dialer

	DelegateQueue Executor
	CallbackQueue Executor

	MaySendHandshakeAsync bool
	AwaitOnlyHandshake    bool
	Persist               bool

	IgnoreError func(error) bool
}

func newOptions() *Options {
	return &Options{
		Logger:                newNullLogger(),
		DelegateQueue:         goroutineExecutor{},
		CallbackQueue:         goroutineExecutor{},
		MaySendHandshakeAsync: true,
		IgnoreError:           func(error) bool { return false },
	}
}

// Option configures a Session at construction time.
type Option func(*Options)

// WithLogger sets the Logger a Session uses. The default is a no-op
// logger.
func WithLogger(logger Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithFieldLogger adapts a logrus.FieldLogger (e.g. from logrus.New()) for
// use as the Session's Logger.
func WithFieldLogger(logger logrus.FieldLogger) Option {
	return func(o *Options) {
		o.Logger = &wrappedFieldLogger{logger}
	}
}

// WithHTTPClient sets the *http.Client used for the one-shot HTTP
// transport that handles the handshake when MaySendHandshakeAsync is
// true. If unset, a client with a public-suffix-aware cookie jar is
// created automatically.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = client
	}
}

// WithHTTPTransport sets the http.RoundTripper the HTTP client uses. Tests
// use this to substitute gobayeuxtest.Server for a real network
// connection.
func WithHTTPTransport(roundTripper http.RoundTripper) Option {
	return func(o *Options) {
		o.HTTPRoundTripper = roundTripper
	}
}

// WithDialer sets the *websocket.Dialer used to open the session's
// WebSocket transport. If unset, websocket.DefaultDialer is used.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(o *Options) {
		o.Dialer = dialer
	}
}

// WithMaySendHandshakeAsync controls whether the handshake is sent over a
// short-lived HTTP POST in parallel with opening the WebSocket (true,
// the default), or held until the WebSocket itself is open (false). Some
// server implementations only accept the handshake over the same
// connection that will carry the subsequent connect loop.
func WithMaySendHandshakeAsync(async bool) Option {
	return func(o *Options) {
		o.MaySendHandshakeAsync = async
	}
}

// WithAwaitOnlyHandshake controls whether Connect returns as soon as the
// handshake succeeds (true), rather than waiting for the first
// /meta/connect to also succeed (false, the default). Either way,
// Delegate.ClientConnected fires once the first /meta/connect succeeds.
// Setting this can speed up perceived connect time at the cost of not yet
// knowing whether the first connect will succeed.
func WithAwaitOnlyHandshake(await bool) Option {
	return func(o *Options) {
		o.AwaitOnlyHandshake = await
	}
}

// WithDelegateQueue sets the Executor delegate notifications are run on.
// The default runs each notification on its own goroutine.
func WithDelegateQueue(executor Executor) Option {
	return func(o *Options) {
		o.DelegateQueue = executor
	}
}

// WithCallbackQueue sets the Executor subscription callbacks are run on.
// The default runs each callback on its own goroutine.
func WithCallbackQueue(executor Executor) Option {
	return func(o *Options) {
		o.CallbackQueue = executor
	}
}

// WithPersist records whether the session is marked as long-lived. The
// flag does not change the session's behavior: once connected, its engine
// goroutine holds its own reference to the session until Disconnect is
// called, whether or not the flag is set.
func WithPersist(persist bool) Option {
	return func(o *Options) {
		o.Persist = persist
	}
}

// WithIgnoreError installs a predicate consulted when the server rejects a
// /meta/subscribe request. When it returns true for the error, Subscribe
// treats the request as successful: the callback stays registered,
// SubscriptionSucceeded fires and Subscribe returns nil. Used, for example,
// to swallow a "already subscribed" 403 from a server that treats a repeat
// /meta/subscribe as an error rather than a no-op.
func WithIgnoreError(ignore func(error) bool) Option {
	return func(o *Options) {
		o.IgnoreError = ignore
	}
}
