package bus

import "time"

// Mode selects what to extract from a link.
type Mode string

const (
	ModeVideo Mode = "video"
	ModeAudio Mode = "audio"
)

// Action is a decoded button press. Raw payload strings are decoded at the
// transport boundary; the pipeline only ever sees this tagged form.
type Action struct {
	Mode Mode
	URL  string
}

// InboundMessage is a request received from a chat channel. Exactly one of
// Text or Action carries the request.
type InboundMessage struct {
	Channel   string
	Identity  string
	ChatID    string
	Text      string
	Action    *Action
	Timestamp time.Time
}

// OutboundMessage is a reply to send through a chat channel. The shape is
// picked by which fields are set: FilePath uploads a file with Caption,
// OfferURL renders the video/audio choice buttons, otherwise Text is sent
// plain (direct-link fallbacks included).
type OutboundMessage struct {
	Channel  string
	ChatID   string
	Text     string
	FilePath string
	Caption  string
	OfferURL string

	// done, when set, is closed once dispatch has finished with the
	// message. Lets a sender keep message resources (uploaded files)
	// alive until the transport is done reading them.
	done chan struct{}
}
