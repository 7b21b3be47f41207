package gobayeux

import "testing"

func TestActorRegistry_FireWithoutSet(t *testing.T) {
	r := NewActorRegistry()
	if r.Fire(MetaHandshake, Message{}) {
		t.Error("expected Fire to report no actor was registered")
	}
}

func TestActorRegistry_SetAndFire(t *testing.T) {
	r := NewActorRegistry()
	var calls int
	r.Set(MetaConnect, func(msg Message) { calls++ })

	r.Fire(MetaConnect, Message{})
	r.Fire(MetaConnect, Message{})

	if calls != 2 {
		t.Errorf("expected the steady-state actor to fire on every message, got %d calls", calls)
	}
}

func TestActorRegistry_ChainOnceRestoresOriginal(t *testing.T) {
	r := NewActorRegistry()

	var steadyCalls, onceCalls int
	r.Set(MetaConnect, func(msg Message) { steadyCalls++ })
	r.ChainOnce(MetaConnect, func(msg Message) { onceCalls++ })

	r.Fire(MetaConnect, Message{})
	if steadyCalls != 1 || onceCalls != 1 {
		t.Fatalf("expected both the original and once actor to fire, got steady=%d once=%d", steadyCalls, onceCalls)
	}

	r.Fire(MetaConnect, Message{})
	if steadyCalls != 2 || onceCalls != 1 {
		t.Errorf("expected only the restored original to fire on the second message, got steady=%d once=%d", steadyCalls, onceCalls)
	}
}

func TestActorRegistry_ChainOnceWithoutOriginal(t *testing.T) {
	r := NewActorRegistry()

	var onceCalls int
	r.ChainOnce(MetaHandshake, func(msg Message) { onceCalls++ })

	r.Fire(MetaHandshake, Message{})
	if onceCalls != 1 {
		t.Fatalf("expected the once actor to fire, got %d calls", onceCalls)
	}

	if r.Fire(MetaHandshake, Message{}) {
		t.Error("expected no actor to remain registered once the once-actor fired and there was no original")
	}
}
