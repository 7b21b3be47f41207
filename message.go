package gobayeux

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Message represents a single Bayeux envelope, sent or received as one
// element of a JSON array.
//
// See also: https://docs.cometd.org/current/reference/#_bayeux_message_fields
type Message struct {
	// Channel is the Channel this message is addressed to or arrived on.
	Channel Channel `json:"channel"`
	// Version is the Bayeux protocol version, sent on /meta/handshake.
	Version string `json:"version,omitempty"`
	// MinimumVersion is the oldest protocol version the client will accept.
	MinimumVersion string `json:"minimumVersion,omitempty"`
	// SupportedConnectionTypes lists the connection types the sender
	// supports.
	SupportedConnectionTypes []string `json:"supportedConnectionTypes,omitempty"`
	// ConnectionType is the connection type used for this connection, sent
	// on /meta/connect.
	ConnectionType string `json:"connectionType,omitempty"`
	// ClientID identifies a particular session via a session id token.
	ClientID string `json:"clientId,omitempty"`
	// Advice carries server-issued operational hints about reconnection.
	Advice *Advice `json:"advice,omitempty"`
	// ID correlates a request with its response; required for meta/service
	// messages, echoed verbatim by the server.
	ID string `json:"id,omitempty"`
	// Timestamp is an ISO-8601 timestamp.
	Timestamp string `json:"timestamp,omitempty"`
	// Data carries the arbitrary application payload of a message on a
	// user channel.
	Data json.RawMessage `json:"data,omitempty"`
	// Successful indicates whether the request this message responds to
	// succeeded.
	Successful bool `json:"successful,omitempty"`
	// AuthSuccessful indicates whether authentication succeeded during
	// handshake.
	AuthSuccessful bool `json:"authSuccessful,omitempty"`
	// Subscription is the channel a /meta/subscribe or /meta/unsubscribe
	// request or response refers to.
	Subscription Channel `json:"subscription,omitempty"`
	// Error is a string of the form "code:args:text" describing why a
	// request failed.
	Error string `json:"error,omitempty"`
	// Ext carries arbitrary extension data; see GetExt.
	Ext map[string]interface{} `json:"ext,omitempty"`
}

// GetExt returns the Ext map, initializing it to an empty map first if it
// is nil and shouldCreate is true. When shouldCreate is false and Ext is
// nil, GetExt returns nil without allocating.
func (m *Message) GetExt(shouldCreate bool) map[string]interface{} {
	if m.Ext == nil && shouldCreate {
		m.Ext = make(map[string]interface{})
	}
	return m.Ext
}

// TimestampAsTime parses Timestamp as an ISO-8601 timestamp.
func (m Message) TimestampAsTime() (time.Time, error) {
	return time.Parse("2006-01-02T15:04:05.99", m.Timestamp)
}

// MessageError is the parsed form of Message.Error, whose wire format is
// "code:args:text" where args is a comma-separated list.
type MessageError struct {
	ErrorCode    int
	ErrorArgs    []string
	ErrorMessage string
}

// ParseError parses Message.Error into a MessageError. An error string that
// doesn't match the "code:args:text" grammar is reported via the returned
// error rather than passed through, since there's no safe default to fall
// back to for ErrorCode.
func (m Message) ParseError() (MessageError, error) {
	pieces := strings.SplitN(m.Error, ":", 3)
	if len(pieces) != 3 {
		return MessageError{}, fmt.Errorf("error string %q is not in the form code:args:text", m.Error)
	}

	code, err := strconv.Atoi(pieces[0])
	if err != nil {
		return MessageError{}, fmt.Errorf("error code %q is not an integer: %w", pieces[0], err)
	}

	return MessageError{
		ErrorCode:    code,
		ErrorArgs:    strings.Split(pieces[1], ","),
		ErrorMessage: pieces[2],
	}, nil
}

func (e MessageError) Error() string {
	return fmt.Sprintf("%d: %s (%s)", e.ErrorCode, e.ErrorMessage, strings.Join(e.ErrorArgs, ","))
}

// Advice is the reconnect advice a server attaches to a reply. The session
// acts on the advice of each reply as it arrives and does not keep it for
// later replies.
type Advice struct {
	// Reconnect is one of "retry", "handshake", or "none".
	Reconnect string `json:"reconnect,omitempty"`
	// Interval is the number of milliseconds to wait before reconnecting.
	Interval int `json:"interval,omitempty"`
	// Timeout is the number of milliseconds the server allows a connection
	// to remain idle.
	Timeout int `json:"timeout,omitempty"`
	// Hosts is a list of alternate hosts to try on the next reconnect
	// attempt, most preferred first.
	Hosts []string `json:"hosts,omitempty"`
}

// Reconnect advice values.
const (
	ReconnectRetry     = "retry"
	ReconnectHandshake = "handshake"
	ReconnectNone      = "none"
)

// DefaultAdvice is applied to a failed /meta/connect whose reply carries no
// advice of its own.
var DefaultAdvice = &Advice{Reconnect: ReconnectRetry, Interval: 1000}

// MustNotRetryOrHandshake reports whether this advice forbids any automatic
// recovery.
func (a Advice) MustNotRetryOrHandshake() bool {
	return a.Reconnect == ReconnectNone
}

// ShouldRetry reports whether this advice asks the client to retry
// /meta/connect without a new handshake.
func (a Advice) ShouldRetry() bool {
	return a.Reconnect == ReconnectRetry
}

// ShouldHandshake reports whether this advice asks the client to perform a
// full handshake again.
func (a Advice) ShouldHandshake() bool {
	return a.Reconnect == ReconnectHandshake
}

// TimeoutAsDuration converts Timeout, in milliseconds, to a time.Duration.
func (a Advice) TimeoutAsDuration() time.Duration {
	return time.Duration(a.Timeout) * time.Millisecond
}

// IntervalAsDuration converts Interval, in milliseconds, to a
// time.Duration.
func (a Advice) IntervalAsDuration() time.Duration {
	return time.Duration(a.Interval) * time.Millisecond
}
