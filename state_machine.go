package gobayeux

import (
	"sync/atomic"
)

// StateRepresentation represents the current state of a session as a
// string
type StateRepresentation string

const (
	disconnected int32 = iota
	opening
	handshaking
	connecting
	connected
	reconnecting
)

const (
	disconnectedRepr StateRepresentation = "DISCONNECTED"
	openingRepr      StateRepresentation = "OPENING"
	handshakingRepr  StateRepresentation = "HANDSHAKING"
	connectingRepr   StateRepresentation = "CONNECTING"
	connectedRepr    StateRepresentation = "CONNECTED"
	reconnectingRepr StateRepresentation = "RECONNECTING"
)

var stateNames = []StateRepresentation{
	disconnectedRepr,
	openingRepr,
	handshakingRepr,
	connectingRepr,
	connectedRepr,
	reconnectingRepr,
}

func stateName(state int32) string {
	s := int(state)
	if s < 0 || s >= len(stateNames) {
		return "unknown"
	}

	return string(stateNames[s])
}

// Event represents an event that can change the state of a session
type Event string

const (
	eventConnectRequested    Event = "connect requested"
	eventTransportOpened     Event = "transport opened"
	eventTransportOpenFailed Event = "transport open failed"
	eventTransportClosed     Event = "transport closed"
	eventHandshakeOK         Event = "handshake succeeded"
	eventHandshakeFailed     Event = "handshake failed"
	eventConnectOK           Event = "connect succeeded"
	eventConnectFailedRetry  Event = "connect failed, advised to retry"
	eventConnectFailedHS     Event = "connect failed, advised to handshake"
	eventAdviceNone          Event = "advised not to recover"
	eventDisconnectRequested Event = "disconnect requested"
)

// ConnectionStateMachine handles managing the session's state across the
// six states a Bayeux session moves through: Disconnected, Opening,
// Handshaking, Connecting, Connected, Reconnecting.
type ConnectionStateMachine struct {
	currentState *int32
}

// NewConnectionStateMachine creates a new ConnectionStateMachine in the
// Disconnected state.
func NewConnectionStateMachine() *ConnectionStateMachine {
	defaultState := disconnected
	return &ConnectionStateMachine{&defaultState}
}

// IsConnected reflects whether the session is in the Connected state.
func (csm *ConnectionStateMachine) IsConnected() bool {
	return atomic.LoadInt32(csm.currentState) == connected
}

// IsReconnecting reflects whether the session is in the Reconnecting state.
func (csm *ConnectionStateMachine) IsReconnecting() bool {
	return atomic.LoadInt32(csm.currentState) == reconnecting
}

// IsDisconnected reflects whether the session is in the Disconnected state.
func (csm *ConnectionStateMachine) IsDisconnected() bool {
	return atomic.LoadInt32(csm.currentState) == disconnected
}

// CurrentState provides a string representation of the current state of the
// state machine
func (csm *ConnectionStateMachine) CurrentState() StateRepresentation {
	return StateRepresentation(stateName(atomic.LoadInt32(csm.currentState)))
}

// ProcessEvent handles an event, transitioning the state machine or
// returning an error if the event is not valid for the current state.
func (csm *ConnectionStateMachine) ProcessEvent(e Event) error {
	switch e {
	case eventConnectRequested:
		atomic.StoreInt32(csm.currentState, opening)

	case eventTransportOpened:
		current := atomic.LoadInt32(csm.currentState)
		if current != opening && current != reconnecting {
			return newBadState(current, opening, handshaking, "transport opened but session was not opening or reconnecting")
		}
		atomic.StoreInt32(csm.currentState, handshaking)

	case eventTransportOpenFailed:
		atomic.StoreInt32(csm.currentState, disconnected)

	case eventHandshakeOK:
		current := atomic.LoadInt32(csm.currentState)
		if current != handshaking {
			return newBadHanshake(current, handshaking, connecting)
		}
		atomic.StoreInt32(csm.currentState, connecting)

	case eventHandshakeFailed, eventAdviceNone:
		atomic.StoreInt32(csm.currentState, disconnected)

	case eventConnectOK:
		current := atomic.LoadInt32(csm.currentState)
		if current != connecting && current != connected {
			return newBadConnection(current, connecting, connected)
		}
		atomic.StoreInt32(csm.currentState, connected)

	case eventConnectFailedRetry:
		current := atomic.LoadInt32(csm.currentState)
		if current == connected {
			atomic.StoreInt32(csm.currentState, reconnecting)
		}
		// else: stays in Connecting, the retry delay happens around us

	case eventConnectFailedHS:
		atomic.StoreInt32(csm.currentState, handshaking)

	case eventTransportClosed:
		current := atomic.LoadInt32(csm.currentState)
		if current == disconnected {
			return nil
		}
		atomic.StoreInt32(csm.currentState, reconnecting)

	case eventDisconnectRequested:
		atomic.StoreInt32(csm.currentState, disconnected)

	default:
		return UnknownEventTypeError{e}
	}
	return nil
}

func newBadState(current, from, to int32, msg string) *BadStateError {
	return &BadStateError{
		Message:      msg,
		CurrentState: current,
		FromState:    from,
		ToState:      to,
	}
}
