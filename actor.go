package gobayeux

import "sync"

// Actor handles a message delivered on a meta channel.
type Actor func(msg Message)

// ActorRegistry maps meta channel names to the handler that should run the
// next time a response arrives on that channel. Only one handler is held
// per channel at a time; installing a new one with Set replaces it.
//
// The session engine fires its registry with every /meta/handshake and
// /meta/connect reply, and with any other message that arrives alongside a
// connect reply, so an actor registered here (or chained with
// Session.OnMeta) observes those messages. Replies to subscribe,
// unsubscribe, disconnect and publish requests are not fired.
type ActorRegistry struct {
	mu      sync.Mutex
	actors  map[Channel]Actor
}

// NewActorRegistry creates an empty ActorRegistry.
func NewActorRegistry() *ActorRegistry {
	return &ActorRegistry{actors: make(map[Channel]Actor)}
}

// Set installs handler as the actor for channel, replacing whatever actor
// was previously registered.
func (r *ActorRegistry) Set(channel Channel, handler Actor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actors[channel] = handler
}

// Fire invokes the actor currently registered for channel, if any. It
// reports whether an actor was found and invoked.
func (r *ActorRegistry) Fire(channel Channel, msg Message) bool {
	r.mu.Lock()
	actor, ok := r.actors[channel]
	r.mu.Unlock()
	if !ok || actor == nil {
		return false
	}
	actor(msg)
	return true
}

// ChainOnce atomically wraps the actor currently registered for channel so
// that, on the very next invocation, the original actor runs first,
// followed by once, after which the wrapper is replaced by the original
// actor again. This lets the engine attach a one-shot continuation (for
// example, a connect-success callback) without permanently replacing the
// channel's steady-state handler, and without it leaking across
// reconnects.
func (r *ActorRegistry) ChainOnce(channel Channel, once Actor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	original := r.actors[channel]
	var fired bool
	r.actors[channel] = func(msg Message) {
		if fired {
			return
		}
		fired = true

		if original != nil {
			original(msg)
		}
		once(msg)

		r.mu.Lock()
		r.actors[channel] = original
		r.mu.Unlock()
	}
}
