package gobayeux

import (
	"fmt"
	"strconv"
	"strings"
)

// Connection types a client may advertise in a /meta/handshake request.
// ConnectionTypeWebsocket is implemented by WebsocketTransport and
// ConnectionTypeLongPolling by HTTPTransport. The session also advertises
// ConnectionTypeCallbackPolling in every handshake for server
// compatibility without implementing it; ConnectionTypeIFrame is accepted
// by the builders but never advertised by the session.
const (
	ConnectionTypeWebsocket      = "websocket"
	ConnectionTypeLongPolling    = "long-polling"
	ConnectionTypeCallbackPolling = "callback-polling"
	ConnectionTypeIFrame         = "iframe"
)

func isKnownConnectionType(connectionType string) bool {
	switch connectionType {
	case ConnectionTypeWebsocket, ConnectionTypeCallbackPolling, ConnectionTypeLongPolling, ConnectionTypeIFrame:
		return true
	default:
		return false
	}
}

// HandshakeRequestBuilder provides a way to safely and confidently create
// handshake requests to /meta/handshake.
//
// See also: https://docs.cometd.org/current/reference/#_handshake_request
type HandshakeRequestBuilder struct {
	// Required fields
	version                  string
	supportedConnectionTypes []string
	// Optional fields
	minimumVersion string
	id             string
	ext            map[string]interface{}
}

// NewHandshakeRequestBuilder provides an easy way to build a Message that can
// be sent as a Handshake Request as documented in
// https://docs.cometd.org/current/reference/#_handshake_request
func NewHandshakeRequestBuilder() *HandshakeRequestBuilder {
	return &HandshakeRequestBuilder{
		supportedConnectionTypes: make([]string, 0),
	}
}

// AddSupportedConnectionType accepts a string and will add it to the list of
// supported connection types for the /meta/handshake request. It validates
// the connection type. You're encouraged to use one of the constants created
// for these different connection types.
// This will de-duplicate connection types and returns an error if an invalid
// connection type was provided.
func (b *HandshakeRequestBuilder) AddSupportedConnectionType(connectionType string) error {
	if !isKnownConnectionType(connectionType) {
		return fmt.Errorf("'%s' is not a valid connection type", connectionType)
	}
	for _, ct := range b.supportedConnectionTypes {
		if ct == connectionType {
			return nil
		}
	}
	b.supportedConnectionTypes = append(b.supportedConnectionTypes, connectionType)
	return nil
}

// AddVersion accepts the version of the Bayeux protocol that the client
// supports.
func (b *HandshakeRequestBuilder) AddVersion(version string) error {
	if err := validateVersion(version); err != nil {
		return err
	}
	b.version = version
	return nil
}

// AddMinimumVersion adds the minimum supported version
func (b *HandshakeRequestBuilder) AddMinimumVersion(version string) error {
	if err := validateVersion(version); err != nil {
		return err
	}
	b.minimumVersion = version
	return nil
}

// AddID sets the request id that the server will echo back in its
// response.
func (b *HandshakeRequestBuilder) AddID(id string) {
	b.id = id
}

// AddExt merges the given key/value into the request's ext object,
// allowing extensions to attach handshake-time metadata (e.g. a replay
// extension advertising support).
func (b *HandshakeRequestBuilder) AddExt(key string, value interface{}) {
	if b.ext == nil {
		b.ext = make(map[string]interface{})
	}
	b.ext[key] = value
}

func validateVersion(version string) error {
	if len(version) < 1 {
		return fmt.Errorf("version '%s' is invalid for Bayeux protocol", version)
	}
	pieces := strings.SplitN(version, ".", 2)
	if _, err := strconv.Atoi(pieces[0]); err != nil {
		return err
	}
	return nil
}

// Build generates the final Message to be sent as a Handshake Request
func (b *HandshakeRequestBuilder) Build() ([]Message, error) {
	if len(b.supportedConnectionTypes) < 1 {
		return nil, ErrNoSupportedConnectionTypes
	}
	if len(b.version) == 0 {
		return nil, ErrNoVersion
	}
	m := Message{
		Channel:                  MetaHandshake,
		Version:                  b.version,
		SupportedConnectionTypes: b.supportedConnectionTypes,
		ID:                       b.id,
		Ext:                      b.ext,
	}
	if len(b.minimumVersion) > 0 {
		m.MinimumVersion = b.minimumVersion
	}
	return []Message{m}, nil
}

// ConnectRequestBuilder provides a way to safely build a Message that can be
// sent as a /meta/connect request as documented in
// https://docs.cometd.org/current/reference/#_connect_request
type ConnectRequestBuilder struct {
	clientID       string
	connectionType string
	id             string
}

// NewConnectRequestBuilder initializes a ConnectRequestBuilder as an easy way
// to build a Message that can be sent as a /meta/connect request.
//
// See also: https://docs.cometd.org/current/reference/#_connect_request
func NewConnectRequestBuilder() *ConnectRequestBuilder {
	return &ConnectRequestBuilder{}
}

// AddClientID adds the previously provided clientId to the request
func (b *ConnectRequestBuilder) AddClientID(clientID string) {
	b.clientID = clientID
}

// AddConnectionType adds the connection type used by the client for the
// purposes of this connection to the request
func (b *ConnectRequestBuilder) AddConnectionType(connectionType string) error {
	if !isKnownConnectionType(connectionType) {
		return fmt.Errorf("'%s' is not a valid connection type", connectionType)
	}
	b.connectionType = connectionType
	return nil
}

// AddID sets the request id that the server will echo back in its
// response.
func (b *ConnectRequestBuilder) AddID(id string) {
	b.id = id
}

// Build generates the final Message to be sent as a Connect Request
func (b *ConnectRequestBuilder) Build() ([]Message, error) {
	if b.clientID == "" {
		return nil, ErrMissingClientID
	}

	if b.connectionType == "" {
		return nil, ErrMissingConnectionType
	}

	m := Message{
		Channel:        MetaConnect,
		ClientID:       b.clientID,
		ConnectionType: b.connectionType,
		ID:             b.id,
	}
	return []Message{m}, nil
}

// SubscribeRequestBuilder provides an easy way to build a /meta/subscribe
// request per the specification in
// https://docs.cometd.org/current/reference/#_subscribe_request
type SubscribeRequestBuilder struct {
	clientID     string
	subscription []Channel
	ext          map[string]interface{}
	id           string
}

// NewSubscribeRequestBuilder initializes a SubscribeRequestBuilder as an easy
// way to build a Message that can be sent as a /meta/subscribe request. See
// also https://docs.cometd.org/current/reference/#_subscribe_request
func NewSubscribeRequestBuilder() *SubscribeRequestBuilder {
	return &SubscribeRequestBuilder{subscription: make([]Channel, 0)}
}

// AddClientID adds the previously provided clientId to the request
func (b *SubscribeRequestBuilder) AddClientID(clientID string) {
	b.clientID = clientID
}

// AddExt merges the given key/value into every subscribe message this
// builder produces.
func (b *SubscribeRequestBuilder) AddExt(key string, value interface{}) {
	if b.ext == nil {
		b.ext = make(map[string]interface{})
	}
	b.ext[key] = value
}

// AddID sets the request id that the server will echo back in its
// response.
func (b *SubscribeRequestBuilder) AddID(id string) {
	b.id = id
}

// AddSubscription adds a given channel to the list of subscriptions being
// sent in a /meta/subscribe request
func (b *SubscribeRequestBuilder) AddSubscription(c Channel) error {
	if !c.IsValid() {
		return InvalidChannelError{c}
	}

	for _, s := range b.subscription {
		if s == c {
			return nil
		}
	}
	b.subscription = append(b.subscription, c)
	return nil
}

// Build generates the final Message to be sent as a Subscribe Request. One
// Message is produced per subscription so that each can be correlated with
// its own response independently, per the protocol's use of the
// subscription field to disambiguate concurrent subscribes.
func (b *SubscribeRequestBuilder) Build() ([]Message, error) {
	if b.clientID == "" {
		return nil, ErrMissingClientID
	}

	if len(b.subscription) < 1 {
		return nil, EmptySliceError("subscriptions")
	}

	ms := make([]Message, len(b.subscription))

	for i := range b.subscription {
		ms[i] = Message{
			Channel:      MetaSubscribe,
			ClientID:     b.clientID,
			Subscription: b.subscription[i],
			Ext:          b.ext,
			ID:           b.id,
		}
	}

	return ms, nil
}

// UnsubscribeRequestBuilder provides an easy way to build a /meta/unsubscribe
// request per the specification in
// https://docs.cometd.org/current/reference/#_unsubscribe_request
type UnsubscribeRequestBuilder struct {
	clientID     string
	subscription []Channel
	id           string
}

// NewUnsubscribeRequestBuilder initializes an UnsubscribeRequestBuilder as an
// easy way to build a Message that can be sent as a /meta/unsubscribe request. See
// also https://docs.cometd.org/current/reference/#_unsubscribe_request
func NewUnsubscribeRequestBuilder() *UnsubscribeRequestBuilder {
	return &UnsubscribeRequestBuilder{subscription: make([]Channel, 0)}
}

// AddClientID adds the previously provided clientId to the request
func (b *UnsubscribeRequestBuilder) AddClientID(clientID string) {
	b.clientID = clientID
}

// AddID sets the request id that the server will echo back in its
// response.
func (b *UnsubscribeRequestBuilder) AddID(id string) {
	b.id = id
}

// AddSubscription adds a given channel to the list of subscriptions being
// sent in a /meta/unsubscribe request
func (b *UnsubscribeRequestBuilder) AddSubscription(c Channel) error {
	if !c.IsValid() {
		return InvalidChannelError{c}
	}

	for _, s := range b.subscription {
		if s == c {
			return nil
		}
	}
	b.subscription = append(b.subscription, c)
	return nil
}

// Build generates the final Message to be sent as a Unsubscribe Request
func (b *UnsubscribeRequestBuilder) Build() ([]Message, error) {
	if b.clientID == "" {
		return nil, ErrMissingClientID
	}

	if len(b.subscription) < 1 {
		return nil, EmptySliceError("subscriptions")
	}

	ms := make([]Message, len(b.subscription))

	for i := range b.subscription {
		ms[i] = Message{
			Channel:      MetaUnsubscribe,
			ClientID:     b.clientID,
			Subscription: b.subscription[i],
			ID:           b.id,
		}
	}
	return ms, nil
}

// DisconnectRequestBuilder provides an easy way to build a /meta/disconnect
// request per the specification in
// https://docs.cometd.org/current/reference/#_bayeux_meta_disconnect
type DisconnectRequestBuilder struct {
	clientID string
	id       string
}

// NewDisconnectRequestBuilder initializes a DisconnectRequestBuilder as an
// easy way to build a Message that can be sent as a /meta/disconnect request.
func NewDisconnectRequestBuilder() *DisconnectRequestBuilder {
	return &DisconnectRequestBuilder{}
}

// AddClientID adds the previously provided clientId to the request
func (b *DisconnectRequestBuilder) AddClientID(clientID string) {
	b.clientID = clientID
}

// AddID sets the request id that the server will echo back in its
// response.
func (b *DisconnectRequestBuilder) AddID(id string) {
	b.id = id
}

// Build generates the final Message to be sent as a Disconnect Request
func (b *DisconnectRequestBuilder) Build() ([]Message, error) {
	if b.clientID == "" {
		return nil, ErrMissingClientID
	}

	return []Message{{Channel: MetaDisconnect, ClientID: b.clientID, ID: b.id}}, nil
}

// PublishRequestBuilder provides an easy way to build a publish request on
// an ordinary (non-meta) user channel. The source library never implements
// publish; this builder follows the same validate-then-Build shape as the
// meta request builders above.
type PublishRequestBuilder struct {
	channel  Channel
	clientID string
	data     []byte
	ext      map[string]interface{}
	id       string
}

// NewPublishRequestBuilder initializes a PublishRequestBuilder for the given
// destination channel, which must not be a meta or service channel.
func NewPublishRequestBuilder(channel Channel) (*PublishRequestBuilder, error) {
	if !channel.IsValid() || channel.Type() != BroadcastChannel {
		return nil, InvalidChannelError{channel}
	}
	return &PublishRequestBuilder{channel: channel}, nil
}

// AddClientID adds the previously provided clientId to the request
func (b *PublishRequestBuilder) AddClientID(clientID string) {
	b.clientID = clientID
}

// AddData sets the raw JSON payload to publish.
func (b *PublishRequestBuilder) AddData(data []byte) {
	b.data = data
}

// AddExt merges the given key/value into the outgoing message's ext object.
func (b *PublishRequestBuilder) AddExt(key string, value interface{}) {
	if b.ext == nil {
		b.ext = make(map[string]interface{})
	}
	b.ext[key] = value
}

// AddID sets the request id that the server will echo back in its
// response.
func (b *PublishRequestBuilder) AddID(id string) {
	b.id = id
}

// Build generates the final Message to be published.
func (b *PublishRequestBuilder) Build() ([]Message, error) {
	if b.clientID == "" {
		return nil, ErrMissingClientID
	}
	return []Message{{
		Channel:  b.channel,
		ClientID: b.clientID,
		Data:     b.data,
		Ext:      b.ext,
		ID:       b.id,
	}}, nil
}
