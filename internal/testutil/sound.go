package testutil

import "sync"

// RecordingSound records the names it was asked to play.
type RecordingSound struct {
	mu     sync.Mutex
	played []string
	Err    error
}

func (s *RecordingSound) Play(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played = append(s.played, name)
	return s.Err
}

// Played returns a copy of the names played so far.
func (s *RecordingSound) Played() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.played...)
}
