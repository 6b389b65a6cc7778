// Package query discards results of superseded requests.
package query

import "sync/atomic"

// Token identifies one issued request on a channel.
type Token uint64

// Tracker hands out increasing tokens for one logical query channel, such
// as the week shown by the dashboard. Only the most recently issued token is
// current. The zero value is ready to use.
type Tracker struct {
	latest atomic.Uint64
}

// Issue starts a new request and supersedes every earlier one.
func (t *Tracker) Issue() Token {
	return Token(t.latest.Add(1))
}

// IsCurrent reports whether tok is still the latest request. A result whose
// token is not current must be dropped.
func (t *Tracker) IsCurrent(tok Token) bool {
	return uint64(tok) == t.latest.Load()
}
