package models

import (
	"time"

	"github.com/google/uuid"
)

// CountingSession is the state of one pass through the counting workflow. It is
// owned by the counting service and persisted between requests; Counted is
// keyed by item id so re-counting an item replaces its entry.
type CountingSession struct {
	ID        uuid.UUID            `json:"id"`
	ItemIDs   []int                `json:"item_ids"`
	Index     int                  `json:"index"`
	Counted   map[int]*CountedItem `json:"counted"`
	Complete  bool                 `json:"complete"`
	StartedAt time.Time            `json:"started_at"`
}

// CountedList returns the session's counted items ordered by ascending item id.
func (s *CountingSession) CountedList() []*CountedItem {
	items := make([]*CountedItem, 0, len(s.Counted))
	for _, id := range s.ItemIDs {
		if item, ok := s.Counted[id]; ok {
			items = append(items, item)
		}
	}
	return items
}

// Progress reports the 1-based position and total of the walk.
func (s *CountingSession) Progress() (current, total int) {
	return s.Index + 1, len(s.ItemIDs)
}

// ShoppingSummary holds the receipt badge counts.
type ShoppingSummary struct {
	TotalCounted  int       `json:"total_counted"`
	NeedsPurchase int       `json:"needs_purchase"`
	GeneratedAt   time.Time `json:"generated_at"`
}
