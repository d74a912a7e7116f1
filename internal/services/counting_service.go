package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"stocktake/internal/models"
)

// sessionTTL bounds how long an abandoned counting session survives in Redis.
const sessionTTL = 4 * time.Hour

// SessionStore is the slice of the cache service the counting service uses to
// persist session state between requests.
type SessionStore interface {
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.CountingSession, error)
	SetSession(ctx context.Context, session *models.CountingSession, ttl time.Duration) error
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
}

// CountingStatus is the view of a session at its current position.
type CountingStatus struct {
	Session        *models.CountingSession `json:"session"`
	Item           *models.InventoryItem   `json:"item,omitempty"`
	Count          int                     `json:"count"`
	SliderPosition int                     `json:"slider_position"`
	DiffFromMin    int                     `json:"diff_from_min"`
	Current        int                     `json:"current"`
	Total          int                     `json:"total"`
}

// CountingService drives the guided walk over the countable items. A session
// snapshots the countable item ids at start, so grid edits made mid-count do
// not shift the walk order.
type CountingService interface {
	Start(ctx context.Context, query, group string) (*CountingStatus, error)
	Status(ctx context.Context, sessionID uuid.UUID) (*CountingStatus, error)
	Commit(ctx context.Context, sessionID uuid.UUID, count int) (*CountingStatus, error)
	Next(ctx context.Context, sessionID uuid.UUID) (*CountingStatus, error)
	Back(ctx context.Context, sessionID uuid.UUID) (*CountingStatus, error)
	Reset(ctx context.Context, sessionID uuid.UUID) (*CountingStatus, error)
	CommitSingle(ctx context.Context, sessionID uuid.UUID, itemID, count int) (*CountingStatus, error)
	End(ctx context.Context, sessionID uuid.UUID) error
}

// ErrNoCountableItems is returned when a session is started over a filter that
// matches nothing eligible for counting.
var ErrNoCountableItems = fmt.Errorf("no countable items match the current filter")

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = fmt.Errorf("counting session not found")

type countingService struct {
	inventory InventoryService
	sessions  SessionStore
}

func NewCountingService(inventory InventoryService, sessions SessionStore) CountingService {
	return &countingService{inventory: inventory, sessions: sessions}
}

// Start snapshots the countable subset under the given filter and opens a new
// session positioned at its first item.
func (s *countingService) Start(ctx context.Context, query, group string) (*CountingStatus, error) {
	countable := s.inventory.Countable(query, group)
	if len(countable) == 0 {
		return nil, ErrNoCountableItems
	}

	ids := make([]int, len(countable))
	for i, item := range countable {
		ids[i] = item.ID
	}

	session := &models.CountingSession{
		ID:        uuid.New(),
		ItemIDs:   ids,
		Counted:   map[int]*models.CountedItem{},
		StartedAt: time.Now(),
	}
	if err := s.sessions.SetSession(ctx, session, sessionTTL); err != nil {
		return nil, fmt.Errorf("persist counting session: %w", err)
	}
	return s.status(session), nil
}

func (s *countingService) Status(ctx context.Context, sessionID uuid.UUID) (*CountingStatus, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.status(session), nil
}

// Commit records the entered count for the item at the current position,
// persists it as the item's new current quantity and advances the walk. The
// walk completes after the last item is committed.
func (s *countingService) Commit(ctx context.Context, sessionID uuid.UUID, count int) (*CountingStatus, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Complete {
		return s.status(session), nil
	}

	item, ok := s.currentItem(session)
	if !ok {
		return nil, fmt.Errorf("session item %d no longer exists", session.ItemIDs[session.Index])
	}

	if err := s.commitItem(ctx, session, item, count); err != nil {
		return nil, err
	}

	if session.Index >= len(session.ItemIDs)-1 {
		session.Complete = true
	} else {
		session.Index++
	}

	if err := s.sessions.SetSession(ctx, session, sessionTTL); err != nil {
		return nil, fmt.Errorf("persist counting session: %w", err)
	}
	return s.status(session), nil
}

// Next commits the displayed default count unchanged and moves on. It is the
// "looks right, keep going" action.
func (s *countingService) Next(ctx context.Context, sessionID uuid.UUID) (*CountingStatus, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Complete {
		return s.status(session), nil
	}

	item, ok := s.currentItem(session)
	if !ok {
		return nil, fmt.Errorf("session item %d no longer exists", session.ItemIDs[session.Index])
	}
	return s.Commit(ctx, sessionID, DefaultCount(item))
}

// Back steps to the previous item. At the first item it is a no-op.
func (s *countingService) Back(ctx context.Context, sessionID uuid.UUID) (*CountingStatus, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Index > 0 {
		session.Index--
		session.Complete = false
		if err := s.sessions.SetSession(ctx, session, sessionTTL); err != nil {
			return nil, fmt.Errorf("persist counting session: %w", err)
		}
	}
	return s.status(session), nil
}

// Reset rewinds the walk to the first item. Counts already recorded are kept,
// so re-walking replaces entries rather than starting from nothing.
func (s *countingService) Reset(ctx context.Context, sessionID uuid.UUID) (*CountingStatus, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.Index = 0
	session.Complete = false
	if err := s.sessions.SetSession(ctx, session, sessionTTL); err != nil {
		return nil, fmt.Errorf("persist counting session: %w", err)
	}
	return s.status(session), nil
}

// CommitSingle counts exactly one item from the session's set and closes the
// walk: the remaining items are recorded at their last known quantities so the
// shopping list still covers the whole countable set.
func (s *countingService) CommitSingle(ctx context.Context, sessionID uuid.UUID, itemID, count int) (*CountingStatus, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	target, ok := s.inventory.Get(itemID)
	if !ok {
		return nil, fmt.Errorf("item %d not found", itemID)
	}
	inSession := false
	for _, id := range session.ItemIDs {
		if id == itemID {
			inSession = true
			break
		}
	}
	if !inSession {
		return nil, fmt.Errorf("item %d is not part of this counting session", itemID)
	}

	if err := s.commitItem(ctx, session, target, count); err != nil {
		return nil, err
	}

	now := time.Now()
	for _, id := range session.ItemIDs {
		if _, counted := session.Counted[id]; counted {
			continue
		}
		item, ok := s.inventory.Get(id)
		if !ok {
			continue
		}
		session.Counted[id] = &models.CountedItem{
			InventoryItem: *item,
			CurrentCount:  item.Quantity(),
			CountedAt:     now,
		}
	}
	session.Index = len(session.ItemIDs) - 1
	session.Complete = true

	if err := s.sessions.SetSession(ctx, session, sessionTTL); err != nil {
		return nil, fmt.Errorf("persist counting session: %w", err)
	}
	return s.status(session), nil
}

// End discards the session state.
func (s *countingService) End(ctx context.Context, sessionID uuid.UUID) error {
	return s.sessions.DeleteSession(ctx, sessionID)
}

// commitItem records one counted item and persists the new quantity. The
// session entry is written only after the store write succeeds.
func (s *countingService) commitItem(ctx context.Context, session *models.CountingSession, item *models.InventoryItem, count int) error {
	if count < 0 {
		return fmt.Errorf("count cannot be negative")
	}
	if err := s.inventory.SetQuantity(ctx, item.ID, count); err != nil {
		return err
	}
	session.Counted[item.ID] = &models.CountedItem{
		InventoryItem: *item,
		CurrentCount:  count,
		CountedAt:     time.Now(),
	}
	session.Counted[item.ID].CurrentQuantity = &count
	return nil
}

func (s *countingService) load(ctx context.Context, sessionID uuid.UUID) (*models.CountingSession, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load counting session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *countingService) currentItem(session *models.CountingSession) (*models.InventoryItem, bool) {
	if session.Index < 0 || session.Index >= len(session.ItemIDs) {
		return nil, false
	}
	return s.inventory.Get(session.ItemIDs[session.Index])
}

func (s *countingService) status(session *models.CountingSession) *CountingStatus {
	current, total := session.Progress()
	status := &CountingStatus{
		Session: session,
		Current: current,
		Total:   total,
	}
	if item, ok := s.currentItem(session); ok {
		count := DefaultCount(item)
		if counted, done := session.Counted[item.ID]; done {
			count = counted.CurrentCount
		}
		status.Item = item
		status.Count = count
		status.SliderPosition = SliderFromCount(item.MinStockAmount, count)
		status.DiffFromMin = count - item.MinStockAmount
	}
	return status
}

// DefaultCount is the count shown before the user adjusts anything: the stored
// current quantity when the item has one, otherwise its minimum stock amount.
func DefaultCount(item *models.InventoryItem) int {
	if item.CurrentQuantity != nil {
		return *item.CurrentQuantity
	}
	return item.MinStockAmount
}

// CountFromSlider maps a slider position to a count. Position 50 is the
// minimum stock amount, 100 is double it.
func CountFromSlider(minStock, position int) int {
	return int(math.Round(float64(minStock) * float64(position) / 50))
}

// SliderFromCount is the inverse mapping, clamped to the slider's range. With
// no minimum stock the slider centers.
func SliderFromCount(minStock, count int) int {
	if minStock == 0 {
		return 50
	}
	position := int(math.Round(float64(count) * 50 / float64(minStock)))
	if position < 0 {
		return 0
	}
	if position > 100 {
		return 100
	}
	return position
}
