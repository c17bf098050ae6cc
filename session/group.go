package session

import "github.com/pinkpixel/gumdrop/history"

// Group is a stroke transaction opened through a session. Closing it takes
// the session lock, so an abort never races with a snapshot.
type Group struct {
	s *Session
	g *history.Group
}

// BeginGroup opens a stroke group. Every group must be closed with End or
// Abort on all paths.
func (s *Session) BeginGroup() *Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Group{s: s, g: s.hist.BeginGroup()}
}

// End commits the group.
func (g *Group) End() {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	g.g.End()
}

// Abort reverts everything applied in the group.
func (g *Group) Abort() error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	return g.g.Abort()
}

// Closed reports whether End or Abort has been called.
func (g *Group) Closed() bool {
	return g.g.Closed()
}
