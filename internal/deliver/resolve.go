// Package deliver decides how a finished download reaches the user.
package deliver

import "github.com/clipbot/clipbot/internal/fetch"

// Kind enumerates delivery outcomes.
type Kind int

const (
	// SendFile uploads the local file.
	SendFile Kind = iota
	// SendLink replies with a direct remote URL instead of a file.
	SendLink
	// TooLarge is the terminal state: over budget and no remote URL to
	// fall back to. Must be reported to the user, never delivered anyway.
	TooLarge
)

// Decision is the resolved delivery outcome.
type Decision struct {
	Kind Kind
	Path string // set for SendFile
	URL  string // set for SendLink
}

// Resolve picks a delivery for a final file of sizeMB against budgetMB.
// Within budget the local file is sent. Over budget, a direct remote URL is
// recovered from the probe metadata: the canonical URL when present,
// otherwise the candidate format with the greatest height. Pure given its
// inputs.
func Resolve(path string, sizeMB, budgetMB float64, info *fetch.Info) Decision {
	if sizeMB <= budgetMB {
		return Decision{Kind: SendFile, Path: path}
	}

	if info != nil {
		if info.URL != "" {
			return Decision{Kind: SendLink, URL: info.URL}
		}
		if url := bestFormatURL(info.Formats); url != "" {
			return Decision{Kind: SendLink, URL: url}
		}
	}
	return Decision{Kind: TooLarge}
}

func bestFormatURL(formats []fetch.Format) string {
	best := ""
	bestHeight := -1
	for _, f := range formats {
		if f.URL != "" && f.Height > bestHeight {
			best = f.URL
			bestHeight = f.Height
		}
	}
	return best
}
