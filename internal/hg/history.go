package hg

import (
	"fmt"

	"hg-go/internal/model"
)

// History returns up to limit recorded transitions of a timer, newest
// first. Transitions that happened while no process was running are
// recorded first.
func (s *HGService) History(id string, limit int) ([]*model.TimerEvent, error) {
	s.logger.Debug("fetching timer history", "id", id)

	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	events, err := s.store.ListEvents(id, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}
