package gobayeux

import "testing"

func TestHandshakeRequestBuilder_AddSupportedConnectionType(t *testing.T) {
	testCases := []struct {
		name      string
		ct        string
		shouldErr bool
	}{
		{
			"valid long-polling",
			"long-polling",
			false,
		},
		{
			"valid callback-polling",
			"callback-polling",
			false,
		},
		{
			"valid iframe",
			"iframe",
			false,
		},
		{
			"invalid connection type",
			"invalid-polling",
			true,
		},
	}

	for _, testCase := range testCases {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			b := NewHandshakeRequestBuilder()
			err := b.AddSupportedConnectionType(tc.ct)
			if err != nil && !tc.shouldErr {
				t.Errorf("expected connection type %s to be valid but got err %q", tc.ct, err)
			}
			if err == nil && tc.shouldErr {
				t.Error("expected an error but didn't get one")
			}
		})
	}
}

func TestHandshakeRequestBuilder_AddVersion(t *testing.T) {
	testCases := []struct {
		name      string
		version   string
		shouldErr bool
	}{
		{
			"valid version 1.0",
			"1.0",
			false,
		},
		{
			"valid version 1.0beta",
			"1.0beta",
			false,
		},
		{
			"valid version 10.0",
			"10.0",
			false,
		},
		{
			"invalid version .0",
			".0",
			true,
		},
		{
			"invalid version a.0",
			"a.0",
			true,
		},
		{
			"invalid version (empty)",
			"",
			true,
		},
	}

	for _, testCase := range testCases {
		tc := testCase
		t.Run(tc.name, func(t *testing.T) {
			b := NewHandshakeRequestBuilder()
			err := b.AddVersion(tc.version)
			if err != nil && !tc.shouldErr {
				t.Errorf("expected version %s to be valid but got err %q", tc.version, err)
			}
			if err == nil && tc.shouldErr {
				t.Error("expected an error but didn't get one")
			}
		})
	}
}

func TestPublishRequestBuilder(t *testing.T) {
	t.Run("rejects meta channels", func(t *testing.T) {
		if _, err := NewPublishRequestBuilder(MetaConnect); err == nil {
			t.Error("expected an error building a publish request on a meta channel")
		}
	})

	t.Run("rejects service channels", func(t *testing.T) {
		if _, err := NewPublishRequestBuilder("/service/chat"); err == nil {
			t.Error("expected an error building a publish request on a service channel")
		}
	})

	t.Run("requires a clientID", func(t *testing.T) {
		b, err := NewPublishRequestBuilder("/foo/bar")
		if err != nil {
			t.Fatalf("unexpected error constructing builder: %q", err)
		}
		if _, err := b.Build(); err == nil {
			t.Error("expected an error building without a clientID")
		}
	})

	t.Run("builds a message with data", func(t *testing.T) {
		b, err := NewPublishRequestBuilder("/foo/bar")
		if err != nil {
			t.Fatalf("unexpected error constructing builder: %q", err)
		}
		b.AddClientID("c1")
		b.AddData([]byte(`{"a":1}`))
		ms, err := b.Build()
		if err != nil {
			t.Fatalf("unexpected error building: %q", err)
		}
		if len(ms) != 1 {
			t.Fatalf("expected exactly one message, got %d", len(ms))
		}
		if ms[0].Channel != "/foo/bar" {
			t.Errorf("expected channel /foo/bar, got %s", ms[0].Channel)
		}
	})
}
