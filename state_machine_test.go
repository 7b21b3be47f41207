package gobayeux

import "testing"

func TestNewConnectionStateMachineDefaults(t *testing.T) {
	csm := NewConnectionStateMachine()
	if csm.IsConnected() {
		t.Error("expected IsConnected() to be false, got true")
	}
	if !csm.IsDisconnected() {
		t.Error("expected IsDisconnected() to be true, got false")
	}
	*csm.currentState = connected
	if !csm.IsConnected() {
		t.Error("expected IsConnected() to be true, got false")
	}
}

func TestProcessEvent(t *testing.T) {
	testCases := []struct {
		name          string
		startingState int32
		event         Event
		shouldErr     bool
		endingState   int32
	}{
		{
			"disconnected session gets connect requested",
			disconnected,
			eventConnectRequested,
			false,
			opening,
		},
		{
			"opening session gets transport opened",
			opening,
			eventTransportOpened,
			false,
			handshaking,
		},
		{
			"opening session gets transport open failure",
			opening,
			eventTransportOpenFailed,
			false,
			disconnected,
		},
		{
			"handshaking session gets successful handshake",
			handshaking,
			eventHandshakeOK,
			false,
			connecting,
		},
		{
			"disconnected session gets successful handshake event unexpectedly",
			disconnected,
			eventHandshakeOK,
			true,
			disconnected,
		},
		{
			"handshaking session gets failed handshake",
			handshaking,
			eventHandshakeFailed,
			false,
			disconnected,
		},
		{
			"connecting session gets successful connect",
			connecting,
			eventConnectOK,
			false,
			connected,
		},
		{
			"connected session gets another successful connect (keepalive loop)",
			connected,
			eventConnectOK,
			false,
			connected,
		},
		{
			"connected session gets transport closed",
			connected,
			eventTransportClosed,
			false,
			reconnecting,
		},
		{
			"connected session gets connect failure advised to retry",
			connected,
			eventConnectFailedRetry,
			false,
			reconnecting,
		},
		{
			"connecting session gets connect failure advised to retry (stays connecting)",
			connecting,
			eventConnectFailedRetry,
			false,
			connecting,
		},
		{
			"connecting session gets connect failure advised to handshake",
			connecting,
			eventConnectFailedHS,
			false,
			handshaking,
		},
		{
			"any session gets advice none",
			connected,
			eventAdviceNone,
			false,
			disconnected,
		},
		{
			"any session gets disconnect requested",
			connected,
			eventDisconnectRequested,
			false,
			disconnected,
		},
		{
			"disconnected session gets an unknown event",
			disconnected,
			"random",
			true,
			disconnected,
		},
	}

	for _, testCase := range testCases {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			startingState := tc.startingState
			csm := &ConnectionStateMachine{&startingState}
			err := csm.ProcessEvent(tc.event)
			if tc.shouldErr && err == nil {
				t.Error("expected ProcessEvent to error but it didn't")
			}
			if !tc.shouldErr && err != nil {
				t.Errorf("didn't expect ProcessEvent to error but it did: %q", err)
			}
			if tc.shouldErr {
				return
			}
			if tc.endingState != *csm.currentState {
				t.Errorf("unexpected ending state: want %s, got %s", stateName(tc.endingState), stateName(*csm.currentState))
			}
		})
	}
}

func TestCurrentState(t *testing.T) {
	testCases := []struct {
		name  string
		state int32
		want  StateRepresentation
	}{
		{"disconnected", disconnected, disconnectedRepr},
		{"opening", opening, openingRepr},
		{"handshaking", handshaking, handshakingRepr},
		{"connecting", connecting, connectingRepr},
		{"connected", connected, connectedRepr},
		{"reconnecting", reconnecting, reconnectingRepr},
	}

	for _, testCase := range testCases {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			state := tc.state
			csm := &ConnectionStateMachine{&state}
			if got := csm.CurrentState(); got != tc.want {
				t.Errorf("unexpected state representation: want %s, got %s", tc.want, got)
			}
		})
	}
}
