package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"stocktake/internal/common"
	"stocktake/internal/models"
	"stocktake/internal/repositories"
)

// DefaultPageSize matches the grid's 12-card layout.
const DefaultPageSize = 12

// FallbackProductGroup is offered in the form selector when the store has no
// product groups yet.
const FallbackProductGroup = "Specielle flasker"

const productGroupCacheTTL = 10 * time.Minute

// GroupCache is the slice of the cache service the inventory service uses.
type GroupCache interface {
	GetProductGroups(ctx context.Context) ([]string, error)
	SetProductGroups(ctx context.Context, groups []string, ttl time.Duration) error
	DeleteProductGroups(ctx context.Context) error
}

// PageResult is one page of the filtered grid.
type PageResult struct {
	Items      []*models.InventoryItem `json:"items"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalItems int                     `json:"total_items"`
	TotalPages int                     `json:"total_pages"`
	PageWindow []int                   `json:"page_window"`
}

// InventoryService owns the canonical in-memory item list for the session and
// derives the filtered, countable and paginated views from it.
type InventoryService interface {
	Load(ctx context.Context) error
	Items() []*models.InventoryItem
	Get(id int) (*models.InventoryItem, bool)
	Filtered(query, group string) []*models.InventoryItem
	Countable(query, group string) []*models.InventoryItem
	Page(query, group string, page, pageSize int) *PageResult
	Create(ctx context.Context, form *models.ItemForm) (*models.InventoryItem, error)
	UpdateFields(ctx context.Context, id int, form *models.ItemForm) (*models.InventoryItem, error)
	SetQuantity(ctx context.Context, id, quantity int) error
	Delete(ctx context.Context, id int) error
	ProductGroups(ctx context.Context) ([]string, error)
}

type inventoryService struct {
	repo           repositories.ItemRepository
	groupCache     GroupCache
	countableLimit int

	// Elements of items are never mutated in place: updates replace the
	// element, and accessors hand out copies, so callers and background jobs
	// can read returned items without holding the lock.
	mu    sync.RWMutex
	items []*models.InventoryItem
}

// NewInventoryService creates the collection manager. countableLimit caps the
// countable subset; 0 means no cap.
func NewInventoryService(repo repositories.ItemRepository, groupCache GroupCache, countableLimit int) InventoryService {
	return &inventoryService{
		repo:           repo,
		groupCache:     groupCache,
		countableLimit: countableLimit,
	}
}

// Load fetches all rows from the store into the session collection.
func (s *inventoryService) Load(ctx context.Context) error {
	items, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

func (s *inventoryService) Items() []*models.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*models.InventoryItem, len(s.items))
	for i, item := range s.items {
		copied := *item
		items[i] = &copied
	}
	return items
}

func (s *inventoryService) Get(id int) (*models.InventoryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			copied := *item
			return &copied, true
		}
	}
	return nil, false
}

// Filtered applies the product-group filter, then the case-insensitive
// substring search over name, location and product group, ordered by id.
func (s *inventoryService) Filtered(query, group string) []*models.InventoryItem {
	needle := strings.ToLower(query)

	s.mu.RLock()
	var filtered []*models.InventoryItem
	for _, item := range s.items {
		if group != "" && item.ProductGroup != group {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(item.Name), needle) &&
			!strings.Contains(strings.ToLower(item.Location), needle) &&
			!strings.Contains(strings.ToLower(item.ProductGroup), needle) {
			continue
		}
		copied := *item
		filtered = append(filtered, &copied)
	}
	s.mu.RUnlock()

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })
	return filtered
}

// Countable returns the filtered items eligible for counting, capped to the
// configured limit when one is set.
func (s *inventoryService) Countable(query, group string) []*models.InventoryItem {
	var countable []*models.InventoryItem
	for _, item := range s.Filtered(query, group) {
		if item.Countable() {
			countable = append(countable, item)
		}
	}
	if s.countableLimit > 0 && len(countable) > s.countableLimit {
		countable = countable[:s.countableLimit]
	}
	return countable
}

func (s *inventoryService) Page(query, group string, page, pageSize int) *PageResult {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	filtered := s.Filtered(query, group)
	totalPages := (len(filtered) + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return &PageResult{
		Items:      filtered[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: len(filtered),
		TotalPages: totalPages,
		PageWindow: models.PageWindow(page, totalPages),
	}
}

// requiredFields is the form scan order; the first missing field drives the
// user-facing notification.
var requiredFields = []string{
	"name",
	"location",
	"product_group",
	"min_stock_amount",
	"current_quantity",
	"default_purchase_unit",
	"stock_unit",
	"default_store",
}

// validateForm marks every missing or invalid field at once.
func validateForm(form *models.ItemForm) (*models.ItemFields, *common.ValidationError) {
	present := map[string]bool{
		"name":                  common.ValidateRequiredString(form.Name),
		"location":              common.ValidateRequiredString(form.Location),
		"product_group":         common.ValidateRequiredString(form.ProductGroup),
		"min_stock_amount":      form.MinStockAmount != nil,
		"current_quantity":      form.CurrentQuantity != nil,
		"default_purchase_unit": common.ValidateRequiredString(form.DefaultPurchaseUnit),
		"stock_unit":            common.ValidateRequiredString(form.StockUnit),
		"default_store":         common.ValidateRequiredString(form.DefaultStore),
	}

	verr := &common.ValidationError{Fields: map[string]string{}}
	for _, field := range requiredFields {
		if !present[field] {
			verr.Fields[field] = "This field is required"
			if verr.First == "" {
				verr.First = field
			}
		}
	}

	if form.MinStockAmount != nil && *form.MinStockAmount < 0 {
		verr.Fields["min_stock_amount"] = "Cannot be negative"
		if verr.First == "" {
			verr.First = "min_stock_amount"
		}
	}
	if form.CurrentQuantity != nil && *form.CurrentQuantity < 0 {
		verr.Fields["current_quantity"] = "Cannot be negative"
		if verr.First == "" {
			verr.First = "current_quantity"
		}
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}

	return &models.ItemFields{
		Name:                strings.TrimSpace(form.Name),
		Location:            strings.TrimSpace(form.Location),
		ProductGroup:        strings.TrimSpace(form.ProductGroup),
		MinStockAmount:      *form.MinStockAmount,
		CurrentQuantity:     *form.CurrentQuantity,
		DefaultPurchaseUnit: strings.TrimSpace(form.DefaultPurchaseUnit),
		StockUnit:           strings.TrimSpace(form.StockUnit),
		DefaultStore:        strings.TrimSpace(form.DefaultStore),
	}, nil
}

// Create validates the form, inserts through the repository (which assigns the
// id store-side) and appends the created row to the session collection. On
// validation failure the store is never called.
func (s *inventoryService) Create(ctx context.Context, form *models.ItemForm) (*models.InventoryItem, error) {
	fields, verr := validateForm(form)
	if verr != nil {
		return nil, verr
	}

	item, err := s.repo.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.mu.Lock()
	stored := *item
	s.items = append(s.items, &stored)
	s.mu.Unlock()

	// A new group may have been introduced
	if err := s.groupCache.DeleteProductGroups(ctx); err != nil {
		log.Printf("failed to invalidate product group cache: %v", err)
	}
	return item, nil
}

// UpdateFields validates and applies a full-field edit.
func (s *inventoryService) UpdateFields(ctx context.Context, id int, form *models.ItemForm) (*models.InventoryItem, error) {
	fields, verr := validateForm(form)
	if verr != nil {
		return nil, verr
	}

	item, err := s.repo.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("update item %d: %w", id, err)
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			stored := *item
			s.items[i] = &stored
			break
		}
	}
	s.mu.Unlock()

	if err := s.groupCache.DeleteProductGroups(ctx); err != nil {
		log.Printf("failed to invalidate product group cache: %v", err)
	}
	return item, nil
}

// SetQuantity persists a new current quantity and only then updates the
// session collection, so a failed write leaves local state untouched.
func (s *inventoryService) SetQuantity(ctx context.Context, id, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}

	if err := s.repo.UpdateQuantity(ctx, id, quantity); err != nil {
		return fmt.Errorf("update quantity for item %d: %w", id, err)
	}

	now := time.Now()
	s.mu.Lock()
	for i, item := range s.items {
		if item.ID == id {
			updated := *item
			updated.CurrentQuantity = &quantity
			updated.LastQuantityUpdate = &now
			s.items[i] = &updated
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// Delete removes the row from the store and, on success, from the session
// collection. On failure the grid is left unchanged.
func (s *inventoryService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}

	s.mu.Lock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.mu.Unlock()
	return nil
}

// ProductGroups returns the distinct product groups for the filter and form
// selectors, cached for a few minutes. When none exist yet a single fallback
// option is offered.
func (s *inventoryService) ProductGroups(ctx context.Context) ([]string, error) {
	if cached, err := s.groupCache.GetProductGroups(ctx); err == nil && len(cached) > 0 {
		return cached, nil
	}

	groups, err := s.repo.DistinctProductGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list product groups: %w", err)
	}
	if len(groups) == 0 {
		return []string{FallbackProductGroup}, nil
	}

	if err := s.groupCache.SetProductGroups(ctx, groups, productGroupCacheTTL); err != nil {
		log.Printf("failed to cache product groups: %v", err)
	}
	return groups, nil
}
