package channel

import (
	"testing"

	"github.com/clipbot/clipbot/internal/bus"
)

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		name      string
		identity  string
		allowList []string
		want      bool
	}{
		{"empty list allows all", "123", nil, true},
		{"listed", "42", []string{"42"}, true},
		{"not listed", "123", []string{"42"}, false},
		{"multiple entries", "7", []string{"42", "7"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAllowed(tt.identity, tt.allowList); got != tt.want {
				t.Errorf("IsAllowed(%q, %v) = %v, want %v", tt.identity, tt.allowList, got, tt.want)
			}
		})
	}
}

func TestActionPayloadRoundTrip(t *testing.T) {
	actions := []bus.Action{
		{Mode: bus.ModeVideo, URL: "https://vm.tiktok.com/x/"},
		{Mode: bus.ModeAudio, URL: "https://www.tiktok.com/@a/video/1?lang=en"},
	}
	for _, a := range actions {
		got, ok := DecodeAction(EncodeAction(a))
		if !ok || got != a {
			t.Errorf("round trip of %+v = (%+v, %v)", a, got, ok)
		}
	}
}

func TestDecodeActionRejectsUnknownPayloads(t *testing.T) {
	for _, payload := range []string{"", "dl", "dl|", "xx|https://vm.tiktok.com/x/", "no delimiter"} {
		if a, ok := DecodeAction(payload); ok {
			t.Errorf("DecodeAction(%q) = (%+v, true), want rejection", payload, a)
		}
	}
}
