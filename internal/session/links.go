// Package session tracks the most recently submitted link per identity, so a
// later audio-only request can reuse it. State lives for process uptime only.
package session

import "sync"

// Store is the capability the pipeline needs from a link store.
type Store interface {
	Record(identity, url string)
	Last(identity string) (string, bool)
}

// Links is an in-memory last-write-wins Store.
type Links struct {
	mu   sync.Mutex
	last map[string]string
}

// NewLinks creates an empty link store.
func NewLinks() *Links {
	return &Links{last: make(map[string]string)}
}

// Record stores url as the most recent link for identity, replacing any
// previous value.
func (l *Links) Record(identity, url string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last[identity] = url
}

// Last returns the most recent link recorded for identity.
func (l *Links) Last(identity string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	url, ok := l.last[identity]
	return url, ok
}

// Len reports how many identities have a recorded link.
func (l *Links) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.last)
}
