package channel

import (
	"context"
	"strings"

	"github.com/clipbot/clipbot/internal/bus"
)

// Channel is the interface for chat platform integrations.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(ctx context.Context, msg *bus.OutboundMessage) error
}

// IsAllowed checks if an identity is in the allow list.
// Empty allow list means everyone is allowed.
func IsAllowed(identity string, allowList []string) bool {
	if len(allowList) == 0 {
		return true
	}
	for _, a := range allowList {
		if a == identity {
			return true
		}
	}
	return false
}

// Button payloads travel through the transport as "<tag>|<url>". The
// delimiter is reserved: it cannot appear in a URL. Encoding and decoding
// happen only here; the rest of the system sees bus.Action.
const (
	payloadVideo = "dl"
	payloadAudio = "au"
	payloadSep   = "|"
)

// EncodeAction renders an action as a button payload string.
func EncodeAction(a bus.Action) string {
	tag := payloadVideo
	if a.Mode == bus.ModeAudio {
		tag = payloadAudio
	}
	return tag + payloadSep + a.URL
}

// DecodeAction parses a button payload string. Returns false for payloads
// outside the fixed vocabulary.
func DecodeAction(payload string) (bus.Action, bool) {
	tag, url, found := strings.Cut(payload, payloadSep)
	if !found || url == "" {
		return bus.Action{}, false
	}
	switch tag {
	case payloadVideo:
		return bus.Action{Mode: bus.ModeVideo, URL: url}, true
	case payloadAudio:
		return bus.Action{Mode: bus.ModeAudio, URL: url}, true
	}
	return bus.Action{}, false
}
