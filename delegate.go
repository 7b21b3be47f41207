package gobayeux

import "time"

// Delegate receives lifecycle notifications from a Session. All methods
// are optional: embed NoopDelegate to only implement the ones you care
// about.
type Delegate interface {
	// ClientConnected is called after the transport has opened and the
	// Bayeux handshake and first connect have both succeeded. The
	// session is ready for Subscribe and Publish.
	ClientConnected(s *Session)

	// SubscriptionSucceeded is called once a subscribe request has been
	// confirmed by the server.
	SubscriptionSucceeded(s *Session, channel Channel)

	// ReceivedUnexpectedMessage is called when a message arrives on a
	// channel with no registered callback. This is not itself an error.
	ReceivedUnexpectedMessage(s *Session, msg Message)

	// ClientDisconnected is called when Disconnect succeeds (err is nil),
	// when the connect loop stops because the session was advised not to
	// recover, and when an automatic reconnect gives up (err describes
	// the failure). A lost connection that is restored is not reported.
	// msg is always the zero Message; the session does not pass the
	// server message that caused a disconnect.
	ClientDisconnected(s *Session, msg Message, err error)

	// FailedWithError is called for failures that do not by themselves
	// change the connection state: a channel that cannot be re-subscribed
	// after Reconnect has restored the connection.
	FailedWithError(s *Session, err error)

	// WasAdvisedToRetry is called at the start of every Reconnect, before
	// the session waits to reconnect. retry is the interval the session
	// intends to wait, which is always the client default of one second;
	// the server's advised interval is not passed. Return a replacement
	// interval to override it, or a negative duration to cancel the
	// reconnect entirely.
	WasAdvisedToRetry(s *Session, retry time.Duration) time.Duration

	// WasAdvisedToHandshake is called when the server's advice says the
	// session must start over with /meta/handshake. shouldRetry
	// reports whether the session intends to reconnect automatically;
	// return false to prevent it.
	WasAdvisedToHandshake(s *Session, shouldRetry bool) bool
}

// NoopDelegate implements Delegate with methods that do nothing (and, for
// WasAdvisedToRetry/WasAdvisedToHandshake, return their inputs unchanged).
// Embed it in a partial Delegate implementation to avoid writing out every
// method.
type NoopDelegate struct{}

func (NoopDelegate) ClientConnected(*Session)                             {}
func (NoopDelegate) SubscriptionSucceeded(*Session, Channel)              {}
func (NoopDelegate) ReceivedUnexpectedMessage(*Session, Message)          {}
func (NoopDelegate) ClientDisconnected(*Session, Message, error)          {}
func (NoopDelegate) FailedWithError(*Session, error)                      {}

func (NoopDelegate) WasAdvisedToRetry(_ *Session, retry time.Duration) time.Duration {
	return retry
}

func (NoopDelegate) WasAdvisedToHandshake(_ *Session, shouldRetry bool) bool {
	return shouldRetry
}

var _ Delegate = NoopDelegate{}
