// Package link pulls TikTok URLs out of free-form message text.
package link

import "regexp"

// Matches short-form (vm./vt./m.) and canonical tiktok.com links followed by
// a permissive path of URL-safe characters.
var tiktokRe = regexp.MustCompile(`(?i)https?://(www\.)?(vm\.|vt\.|m\.)?tiktok\.com/[\w\-/?=&%.]+`)

// Extract returns the first TikTok link found in text. The second return is
// false when text contains no link; that is an expected outcome, not an error.
func Extract(text string) (string, bool) {
	m := tiktokRe.FindString(text)
	if m == "" {
		return "", false
	}
	return m, true
}
