package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"stocktake/internal/models"
)

type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) List(ctx context.Context) ([]*models.InventoryItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) GetByID(ctx context.Context, id int) (*models.InventoryItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) Create(ctx context.Context, fields *models.ItemFields) (*models.InventoryItem, error) {
	args := m.Called(ctx, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) UpdateQuantity(ctx context.Context, id, quantity int) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockItemRepository) UpdateFields(ctx context.Context, id int, fields *models.ItemFields) (*models.InventoryItem, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockItemRepository) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockItemRepository) DistinctProductGroups(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// fakeGroupCache is an in-memory stand-in for the Redis-backed group cache.
type fakeGroupCache struct {
	mu     sync.Mutex
	groups []string
}

func (f *fakeGroupCache) GetProductGroups(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.groups, nil
}

func (f *fakeGroupCache) SetProductGroups(ctx context.Context, groups []string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = groups
	return nil
}

func (f *fakeGroupCache) DeleteProductGroups(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = nil
	return nil
}

// fakeSummaryCache is an in-memory stand-in for the Redis-backed badge-count
// cache.
type fakeSummaryCache struct {
	mu      sync.Mutex
	summary *models.ShoppingSummary
	setErr  error
}

func (f *fakeSummaryCache) GetShoppingSummary(ctx context.Context) (*models.ShoppingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary, nil
}

func (f *fakeSummaryCache) SetShoppingSummary(ctx context.Context, summary *models.ShoppingSummary, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.summary = summary
	return nil
}

// memSessionStore keeps counting sessions in memory so the walk tests can
// exercise the full persistence round-trip without Redis.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.CountingSession
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[uuid.UUID]*models.CountingSession{}}
}

func (s *memSessionStore) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.CountingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[sessionID], nil
}

func (s *memSessionStore) SetSession(ctx context.Context, session *models.CountingSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *memSessionStore) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) UploadDocument(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64) error {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize)
	return args.Error(0)
}

func (m *MockObjectStore) GetPresignedURL(bucketName, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(bucketName, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) EnsureBucketExists(ctx context.Context, bucketName string) error {
	args := m.Called(ctx, bucketName)
	return args.Error(0)
}

func intPtr(n int) *int { return &n }
