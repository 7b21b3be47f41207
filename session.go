package gobayeux

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const protocolVersion = "1.0"

// defaultReconnectInterval is how long Reconnect waits before reconnecting
// (unless the delegate's WasAdvisedToRetry replaces it) and how long the
// connect loop waits between in-place /meta/connect retries. The server's
// advised interval is not used for either.
const defaultReconnectInterval = 1 * time.Second

// Session manages a single client's connection to a Bayeux server: the
// handshake, the long-held /meta/connect loop, subscriptions, and
// reconnection driven by server advice. A Session is safe for concurrent
// use by multiple goroutines.
type Session struct {
	stateMachine  *ConnectionStateMachine
	actors        *ActorRegistry
	subscriptions *SubscriptionTable

	serverAddress      *url.URL
	transport          Transport
	handshakeTransport Transport

	clientID clientIDHolder
	requestID uint64

	exts   []MessageExtender
	extsMu sync.Mutex

	logger   Logger
	delegate Delegate

	delegateQueue Executor
	callbackQueue Executor

	maySendHandshakeAsync bool
	awaitOnlyHandshake    bool
	persist               bool
	ignoreError           func(error) bool

	reconnecting atomic.Bool
	cancel       context.CancelFunc
}

type clientIDHolder struct {
	mu sync.RWMutex
	id string
}

func (c *clientIDHolder) Get() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

func (c *clientIDHolder) Set(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
}

// NewSession creates a Session bound to serverAddress, which must have a
// ws, wss, http, or https scheme. A ws(s) address uses WebsocketTransport
// for the connect loop; an http(s) address uses HTTPTransport, giving
// classic Bayeux long-polling. delegate may be nil, in which case
// notifications are simply dropped.
func NewSession(serverAddress string, delegate Delegate, opts ...Option) (*Session, error) {
	options := newOptions()
	for _, opt := range opts {
		opt(options)
	}
	if delegate == nil {
		delegate = NoopDelegate{}
	}

	parsed, err := url.Parse(serverAddress)
	if err != nil {
		return nil, err
	}

	s := &Session{
		stateMachine:          NewConnectionStateMachine(),
		actors:                NewActorRegistry(),
		subscriptions:         NewSubscriptionTable(),
		serverAddress:         parsed,
		logger:                options.Logger,
		delegate:              delegate,
		delegateQueue:         options.DelegateQueue,
		callbackQueue:         options.CallbackQueue,
		maySendHandshakeAsync: options.MaySendHandshakeAsync,
		awaitOnlyHandshake:    options.AwaitOnlyHandshake,
		persist:               options.Persist,
		ignoreError:           options.IgnoreError,
	}

	switch parsed.Scheme {
	case "ws", "wss":
		ws, err := NewWebsocketTransport(options.Dialer, serverAddress)
		if err != nil {
			return nil, err
		}
		s.transport = ws

		if options.MaySendHandshakeAsync {
			handshakeAddr := *parsed
			if parsed.Scheme == "wss" {
				handshakeAddr.Scheme = "https"
			} else {
				handshakeAddr.Scheme = "http"
			}
			ht, err := NewHTTPTransport(options.HTTPClient, options.HTTPRoundTripper, handshakeAddr.String())
			if err != nil {
				return nil, err
			}
			s.handshakeTransport = ht
		}

	case "http", "https":
		ht, err := NewHTTPTransport(options.HTTPClient, options.HTTPRoundTripper, serverAddress)
		if err != nil {
			return nil, err
		}
		s.transport = ht

	default:
		return nil, BadConnectionTypeError{ConnectionType: parsed.Scheme}
	}

	return s, nil
}

func (s *Session) nextRequestID() string {
	return strconv.FormatUint(atomic.AddUint64(&s.requestID, 1), 10)
}

// IsConnected reports whether the session is currently in the Connected
// state.
func (s *Session) IsConnected() bool {
	return s.stateMachine.IsConnected()
}

// IsReconnecting reports whether the session is currently in the
// Reconnecting state.
func (s *Session) IsReconnecting() bool {
	return s.stateMachine.IsReconnecting()
}

// SubscribedChannels returns a snapshot of every channel pattern currently
// subscribed.
func (s *Session) SubscribedChannels() []Channel {
	return s.subscriptions.Patterns()
}

// OnMeta arranges for once to run the next single time a reply arrives on
// channel, which should be one of the /meta/* channels. For a /meta/connect
// reply, once runs after any messages delivered alongside it have been
// dispatched; for both /meta/handshake and /meta/connect it runs before the
// session records the outcome (the clientID and the state machine
// transition). It does not replace the session's own handling; afterward
// channel's normal handling resumes undisturbed. This lets a caller
// observe the outcome of one specific handshake or connect without
// otherwise changing how the session processes it.
func (s *Session) OnMeta(channel Channel, once Actor) {
	s.actors.ChainOnce(channel, once)
}

// UseExtension adds ext to the list of extensions applied to every
// outgoing and incoming message. It errors if ext is already registered.
func (s *Session) UseExtension(name string, ext MessageExtender) error {
	s.extsMu.Lock()
	defer s.extsMu.Unlock()

	for _, registered := range s.exts {
		if ext == registered {
			return AlreadyRegisteredError{ext}
		}
	}
	s.exts = append(s.exts, ext)
	ext.Registered(name, s)
	return nil
}

// Connect opens the session's transport, performs the Bayeux handshake,
// and sends the first /meta/connect, then starts the background loop that
// keeps the connect request outstanding. It returns once the session has
// reached the Connected state (or, if AwaitOnlyHandshake was set, once the
// handshake alone has succeeded), or once that process has definitively
// failed.
func (s *Session) Connect(ctx context.Context) error {
	return s.connectWithExtension(ctx, nil)
}

// ConnectWithExtension behaves like Connect but merges ext into the
// handshake request's ext object.
func (s *Session) ConnectWithExtension(ctx context.Context, ext map[string]interface{}) error {
	return s.connectWithExtension(ctx, ext)
}

func (s *Session) connectWithExtension(ctx context.Context, ext map[string]interface{}) error {
	logger := s.logger.WithField("at", "connect")
	logger.Debug("starting")

	if err := s.stateMachine.ProcessEvent(eventConnectRequested); err != nil {
		return ConnectionFailedError{Err: err}
	}

	engineCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if err := s.openTransport(ctx, engineCtx); err != nil {
		_ = s.stateMachine.ProcessEvent(eventTransportOpenFailed)
		cancel()
		return ConnectionFailedError{Err: err}
	}
	_ = s.stateMachine.ProcessEvent(eventTransportOpened)

	if _, err := s.handshake(ctx, ext); err != nil {
		_ = s.stateMachine.ProcessEvent(eventHandshakeFailed)
		cancel()
		return err
	}

	if s.awaitOnlyHandshake {
		s.actors.ChainOnce(MetaConnect, func(m Message) {
			if m.Successful {
				s.notifyConnected()
			}
		})
		go s.runConnectLoop(engineCtx)
		return nil
	}

	if err := s.doConnect(ctx); err != nil {
		cancel()
		return err
	}

	s.notifyConnected()
	go s.runConnectLoop(engineCtx)
	return nil
}

func (s *Session) notifyConnected() {
	s.delegateQueue.Go(func() {
		s.delegate.ClientConnected(s)
	})
}

// openTransport opens the underlying connection(s). A WebSocket transport
// is opened (and its read loop started) here; an HTTPTransport needs no
// such step.
func (s *Session) openTransport(ctx, engineCtx context.Context) error {
	pt, ok := s.transport.(PushTransport)
	if !ok {
		return nil
	}

	if err := pt.Open(ctx); err != nil {
		return err
	}

	errc := make(chan error, 1)
	go pt.Listen(engineCtx, errc)
	go s.watchTransportErrors(engineCtx, errc)
	return nil
}

func (s *Session) watchTransportErrors(ctx context.Context, errc <-chan error) {
	select {
	case <-ctx.Done():
		return
	case err := <-errc:
		if err == nil {
			return
		}
		s.handleTransportFailure(err)
	}
}

func (s *Session) handleTransportFailure(err error) {
	logger := s.logger.WithField("at", "transport-failure")
	logger.WithError(err).Debug("transport closed, attempting reconnect")
	_ = s.stateMachine.ProcessEvent(eventTransportClosed)
	go s.reconnectOrNotify()
}

// reconnectOrNotify attempts to restore the session after a transport
// closure or a failed /meta/connect. A transient drop that Reconnect
// recovers from is not itself reported to the delegate; only a reconnect
// that gives up (ctx canceled, handshake or connect failing) is, via
// ClientDisconnected.
func (s *Session) reconnectOrNotify() {
	if err := s.Reconnect(context.Background()); err != nil && err != ErrReconnectInProgress {
		s.delegateQueue.Go(func() {
			s.delegate.ClientDisconnected(s, Message{}, ProtocolError{Err: err})
		})
	}
}

// handshake sends the /meta/handshake request and, on success, stores the
// clientID and advances the state machine to Connecting.
func (s *Session) handshake(ctx context.Context, ext map[string]interface{}) ([]Message, error) {
	logger := s.logger.WithField("at", "handshake")
	start := time.Now()
	logger.Debug("starting")

	builder := NewHandshakeRequestBuilder()
	if err := builder.AddVersion(protocolVersion); err != nil {
		return nil, HandshakeFailedError{err}
	}
	if err := builder.AddSupportedConnectionType(s.transport.ConnectionType()); err != nil {
		return nil, HandshakeFailedError{err}
	}
	if s.handshakeTransport != nil {
		_ = builder.AddSupportedConnectionType(s.handshakeTransport.ConnectionType())
	}
	_ = builder.AddSupportedConnectionType(ConnectionTypeLongPolling)
	_ = builder.AddSupportedConnectionType(ConnectionTypeCallbackPolling)
	builder.AddID(s.nextRequestID())
	for k, v := range ext {
		builder.AddExt(k, v)
	}

	ms, err := builder.Build()
	if err != nil {
		return nil, HandshakeFailedError{err}
	}

	transport := s.transport
	if s.handshakeTransport != nil {
		transport = s.handshakeTransport
	}

	response, err := s.sendRequest(ctx, transport, ms)
	if err != nil {
		logger.WithError(err).Debug("error during request")
		return response, HandshakeFailedError{err}
	}

	var message Message
	found := false
	for _, m := range response {
		if m.Channel == MetaHandshake {
			message = m
			found = true
		}
	}
	if !found {
		return response, HandshakeFailedError{ErrBadChannel}
	}
	s.actors.Fire(MetaHandshake, message)
	if !message.Successful {
		errMsg, parseErr := message.ParseError()
		if parseErr == nil {
			return response, newHandshakeError(errMsg.Error())
		}
		return response, newHandshakeError(message.Error)
	}

	s.clientID.Set(message.ClientID)
	if err := s.stateMachine.ProcessEvent(eventHandshakeOK); err != nil {
		return response, HandshakeFailedError{err}
	}
	logger.WithField("duration", time.Since(start)).Debug("finishing")
	return response, nil
}

// doConnect sends a single /meta/connect request and processes its reply:
// advancing the state machine, dispatching any piggy-backed subscription
// messages, and acting on advice.
func (s *Session) doConnect(ctx context.Context) error {
	logger := s.logger.WithField("at", "connect")

	builder := NewConnectRequestBuilder()
	builder.AddClientID(s.clientID.Get())
	if err := builder.AddConnectionType(s.transport.ConnectionType()); err != nil {
		return ConnectionFailedError{Err: err}
	}
	builder.AddID(s.nextRequestID())

	ms, err := builder.Build()
	if err != nil {
		return ConnectionFailedError{Err: err}
	}

	response, err := s.sendRequest(ctx, s.transport, ms)
	if err != nil {
		logger.WithError(err).Debug("error during request")
		return ConnectionFailedError{Err: err}
	}

	var connectMsg Message
	foundConnect := false
	for _, m := range response {
		if m.Channel == MetaConnect {
			connectMsg = m
			foundConnect = true
			continue
		}
		s.dispatch(m)
	}
	if foundConnect {
		s.actors.Fire(MetaConnect, connectMsg)
	}

	if !foundConnect || !connectMsg.Successful {
		advice := DefaultAdvice
		if foundConnect && connectMsg.Advice != nil {
			advice = connectMsg.Advice
		}
		if advice.ShouldHandshake() {
			if s.invokeWasAdvisedToHandshake(true) {
				_ = s.stateMachine.ProcessEvent(eventConnectFailedHS)
			} else {
				_ = s.stateMachine.ProcessEvent(eventAdviceNone)
			}
		} else {
			_ = s.stateMachine.ProcessEvent(eventConnectFailedRetry)
		}
		return ConnectionFailedError{Err: ErrFailedToConnect}
	}

	if err := s.stateMachine.ProcessEvent(eventConnectOK); err != nil {
		return ConnectionFailedError{Err: err}
	}
	s.processAdvice(connectMsg.Advice)
	return nil
}

func (s *Session) dispatch(m Message) {
	if s.actors.Fire(m.Channel, m) {
		return
	}
	if s.subscriptions.DispatchVia(m, s.callbackQueue.Go) {
		return
	}
	s.delegateQueue.Go(func() {
		s.delegate.ReceivedUnexpectedMessage(s, m)
	})
}

// processAdvice reacts to the advice attached to a successful connect
// reply: nothing required if the session is simply told to keep going.
func (s *Session) processAdvice(advice *Advice) {
	if advice == nil {
		return
	}
	if advice.MustNotRetryOrHandshake() {
		_ = s.stateMachine.ProcessEvent(eventAdviceNone)
		return
	}
	if advice.ShouldHandshake() && !s.invokeWasAdvisedToHandshake(true) {
		_ = s.stateMachine.ProcessEvent(eventAdviceNone)
	}
}

// runConnectLoop keeps /meta/connect outstanding until ctx is canceled,
// reconnecting as advised when a connect fails. A failed connect that leaves
// the session Disconnected (advice "none", or a re-handshake the delegate
// vetoed) ends the loop and notifies ClientDisconnected without
// reconnecting.
func (s *Session) runConnectLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		err := s.doConnect(ctx)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		if s.stateMachine.IsReconnecting() || s.stateMachine.CurrentState() == handshakingRepr {
			go s.reconnectOrNotify()
			return
		}
		if s.stateMachine.IsDisconnected() {
			s.delegateQueue.Go(func() {
				s.delegate.ClientDisconnected(s, Message{}, err)
			})
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(defaultReconnectInterval):
		}
	}
}

// Reconnect attempts to restore a session that has moved to the
// Reconnecting or Disconnected state, re-subscribing every channel that
// was subscribed before the disconnect. It is a no-op if a reconnect
// attempt is already in flight. If the delegate's WasAdvisedToRetry returns
// a negative interval, Reconnect returns context.Canceled without
// reconnecting.
func (s *Session) Reconnect(ctx context.Context) error {
	if !s.reconnecting.CompareAndSwap(false, true) {
		return ErrReconnectInProgress
	}
	defer s.reconnecting.Store(false)

	retry := defaultReconnectInterval
	retry = s.invokeWasAdvisedToRetry(retry)
	if retry < 0 {
		return context.Canceled
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(retry):
	}

	if err := s.connectWithExtension(ctx, nil); err != nil {
		return err
	}

	patterns := s.subscriptions.Patterns()
	for _, p := range patterns {
		if err := s.resubscribe(ctx, p); err != nil {
			s.delegateQueue.Go(func() {
				s.delegate.FailedWithError(s, err)
			})
		}
	}
	return nil
}

func (s *Session) invokeWasAdvisedToRetry(retry time.Duration) time.Duration {
	result := retry
	done := make(chan struct{})
	s.delegateQueue.Go(func() {
		result = s.delegate.WasAdvisedToRetry(s, retry)
		close(done)
	})
	<-done
	return result
}

// invokeWasAdvisedToHandshake consults the delegate before the session
// automatically re-handshakes on a "reconnect: handshake" advice.
// shouldRetry reports the session's own intent to reconnect; the delegate
// may return false to veto the automatic re-handshake.
func (s *Session) invokeWasAdvisedToHandshake(shouldRetry bool) bool {
	result := shouldRetry
	done := make(chan struct{})
	s.delegateQueue.Go(func() {
		result = s.delegate.WasAdvisedToHandshake(s, shouldRetry)
		close(done)
	})
	<-done
	return result
}

func (s *Session) resubscribe(ctx context.Context, pattern Channel) error {
	builder := NewSubscribeRequestBuilder()
	builder.AddClientID(s.clientID.Get())
	if err := builder.AddSubscription(pattern); err != nil {
		return err
	}
	builder.AddID(s.nextRequestID())
	ms, err := builder.Build()
	if err != nil {
		return err
	}
	_, err = s.sendRequest(ctx, s.transport, ms)
	return err
}

// Subscribe registers callback to run for every message delivered on
// pattern and issues a /meta/subscribe request for it. Subscribing the
// same (pattern, callback) pair twice is a no-op: no second request is
// sent.
func (s *Session) Subscribe(ctx context.Context, pattern Channel, callback SubscriptionCallback) error {
	if !s.stateMachine.IsConnected() {
		return SubscriptionFailedError{Channels: []Channel{pattern}, Err: ErrSessionNotConnected}
	}

	if !s.subscriptions.Add(pattern, callback) {
		return nil
	}

	builder := NewSubscribeRequestBuilder()
	builder.AddClientID(s.clientID.Get())
	if err := builder.AddSubscription(pattern); err != nil {
		s.subscriptions.Remove(pattern, callback)
		return SubscriptionFailedError{Channels: []Channel{pattern}, Err: err}
	}
	builder.AddID(s.nextRequestID())

	ms, err := builder.Build()
	if err != nil {
		s.subscriptions.Remove(pattern, callback)
		return SubscriptionFailedError{Channels: []Channel{pattern}, Err: err}
	}

	response, err := s.sendRequest(ctx, s.transport, ms)
	if err != nil {
		s.subscriptions.Remove(pattern, callback)
		return SubscriptionFailedError{Channels: []Channel{pattern}, Err: err}
	}

	for _, m := range response {
		if m.Channel == MetaSubscribe && !m.Successful {
			if s.ignoreError(newSubscribeError(m.Error)) {
				break
			}
			s.subscriptions.Remove(pattern, callback)
			return SubscriptionFailedError{Channels: []Channel{pattern}, Err: newSubscribeError(m.Error)}
		}
	}

	s.delegateQueue.Go(func() {
		s.delegate.SubscriptionSucceeded(s, pattern)
	})
	return nil
}

// Unsubscribe removes callback from pattern's registered callbacks. If
// pattern has no remaining callbacks afterward, it also issues a
// /meta/unsubscribe request.
func (s *Session) Unsubscribe(ctx context.Context, pattern Channel, callback SubscriptionCallback) error {
	if !s.stateMachine.IsConnected() {
		return UnsubscribeFailedError{Channels: []Channel{pattern}, Err: ErrSessionNotConnected}
	}

	if !s.subscriptions.Remove(pattern, callback) {
		return nil
	}
	if s.subscriptions.HasPattern(pattern) {
		return nil
	}

	builder := NewUnsubscribeRequestBuilder()
	builder.AddClientID(s.clientID.Get())
	if err := builder.AddSubscription(pattern); err != nil {
		return UnsubscribeFailedError{Channels: []Channel{pattern}, Err: err}
	}
	builder.AddID(s.nextRequestID())

	ms, err := builder.Build()
	if err != nil {
		return UnsubscribeFailedError{Channels: []Channel{pattern}, Err: err}
	}

	response, err := s.sendRequest(ctx, s.transport, ms)
	if err != nil {
		return UnsubscribeFailedError{Channels: []Channel{pattern}, Err: err}
	}

	for _, m := range response {
		if m.Channel == MetaUnsubscribe && !m.Successful {
			return UnsubscribeFailedError{Channels: []Channel{pattern}, Err: newUnsubscribeError(m.Error)}
		}
	}
	return nil
}

// Publish sends data as an event on channel, which must not be a meta or
// service channel.
func (s *Session) Publish(ctx context.Context, channel Channel, data []byte) error {
	if !s.stateMachine.IsConnected() {
		return UsageError{Op: "Publish", Err: ErrSessionNotConnected}
	}

	builder, err := NewPublishRequestBuilder(channel)
	if err != nil {
		return UsageError{Op: "Publish", Err: err}
	}
	builder.AddClientID(s.clientID.Get())
	builder.AddData(data)
	builder.AddID(s.nextRequestID())

	ms, err := builder.Build()
	if err != nil {
		return UsageError{Op: "Publish", Err: err}
	}

	_, err = s.sendRequest(ctx, s.transport, ms)
	return err
}

// Disconnect sends a /meta/disconnect request and tears down the
// session's background loop and transport.
func (s *Session) Disconnect(ctx context.Context) error {
	clientID := s.clientID.Get()
	if clientID == "" {
		return DisconnectFailedError{Err: ErrSessionNotConnected}
	}

	builder := NewDisconnectRequestBuilder()
	builder.AddClientID(clientID)
	builder.AddID(s.nextRequestID())
	ms, err := builder.Build()
	if err != nil {
		return DisconnectFailedError{Err: err}
	}

	response, sendErr := s.sendRequest(ctx, s.transport, ms)

	if s.cancel != nil {
		s.cancel()
	}
	_ = s.transport.Close()
	_ = s.stateMachine.ProcessEvent(eventDisconnectRequested)

	if sendErr != nil {
		return DisconnectFailedError{Err: sendErr}
	}

	for _, m := range response {
		if m.Channel == MetaDisconnect && !m.Successful {
			return DisconnectFailedError{Err: nil}
		}
	}

	s.delegateQueue.Go(func() {
		s.delegate.ClientDisconnected(s, Message{}, nil)
	})
	return nil
}

func (s *Session) sendRequest(ctx context.Context, transport Transport, ms []Message) ([]Message, error) {
	s.extsMu.Lock()
	exts := append([]MessageExtender(nil), s.exts...)
	s.extsMu.Unlock()

	for _, ext := range exts {
		for i := range ms {
			ext.Outgoing(&ms[i])
		}
	}

	response, err := transport.Request(ctx, ms)
	if err != nil {
		return nil, err
	}

	for _, ext := range exts {
		for i := range response {
			ext.Incoming(&response[i])
		}
	}
	return response, nil
}
