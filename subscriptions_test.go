package gobayeux

import "testing"

func TestSubscriptionTable_AddDedups(t *testing.T) {
	st := NewSubscriptionTable()
	cb := func(msg Message) {}

	if !st.Add("/foo/bar", cb) {
		t.Error("expected first Add to report newly added")
	}
	if st.Add("/foo/bar", cb) {
		t.Error("expected duplicate Add of the same pattern+callback to be a no-op")
	}
	if !st.HasPattern("/foo/bar") {
		t.Error("expected /foo/bar to have a registered callback")
	}
}

func TestSubscriptionTable_AddDistinctCallbacksBothFire(t *testing.T) {
	st := NewSubscriptionTable()
	var calls int
	st.Add("/foo/bar", func(msg Message) { calls++ })
	st.Add("/foo/bar", func(msg Message) { calls++ })

	st.Dispatch(Message{Channel: "/foo/bar"})
	if calls != 2 {
		t.Errorf("expected both distinct callbacks to fire, got %d calls", calls)
	}
}

func TestSubscriptionTable_Remove(t *testing.T) {
	st := NewSubscriptionTable()
	cb := func(msg Message) {}
	st.Add("/foo/bar", cb)

	if !st.Remove("/foo/bar", cb) {
		t.Error("expected Remove to report it removed an entry")
	}
	if st.HasPattern("/foo/bar") {
		t.Error("expected /foo/bar to have no callbacks left")
	}
	if st.Remove("/foo/bar", cb) {
		t.Error("expected a second Remove to be a no-op")
	}
}

func TestSubscriptionTable_DispatchWildcard(t *testing.T) {
	st := NewSubscriptionTable()
	var got Channel
	st.Add("/foo/*", func(msg Message) { got = msg.Channel })

	matched := st.Dispatch(Message{Channel: "/foo/bar"})
	if !matched {
		t.Fatal("expected the wildcard subscription to match")
	}
	if got != "/foo/bar" {
		t.Errorf("expected callback to receive /foo/bar, got %s", got)
	}
}

func TestSubscriptionTable_DispatchNoMatchReportsFalse(t *testing.T) {
	st := NewSubscriptionTable()
	st.Add("/foo/*", func(msg Message) {})

	if st.Dispatch(Message{Channel: "/bar/baz"}) {
		t.Error("expected Dispatch to report no match for an unrelated channel")
	}
}

func TestSubscriptionTable_Patterns(t *testing.T) {
	st := NewSubscriptionTable()
	st.Add("/foo/bar", func(msg Message) {})
	st.Add("/baz/*", func(msg Message) {})

	patterns := st.Patterns()
	if len(patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(patterns))
	}
}
