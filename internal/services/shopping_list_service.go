package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"stocktake/internal/models"
)

const presignedURLExpiry = 15 * time.Minute

// SummaryCache is the slice of the cache service the shopping list uses for
// the receipt badge counts.
type SummaryCache interface {
	GetShoppingSummary(ctx context.Context) (*models.ShoppingSummary, error)
	SetShoppingSummary(ctx context.Context, summary *models.ShoppingSummary, ttl time.Duration) error
}

// ShoppingListService turns a completed counting session into the receipt
// view and its printable PDF.
type ShoppingListService interface {
	FilterCounted(items []*models.CountedItem, query string) []*models.CountedItem
	ToBuyItems(items []*models.CountedItem) []*models.CountedItem
	Summary(ctx context.Context, items []*models.CountedItem) *models.ShoppingSummary
	LatestSummary(ctx context.Context) (*models.ShoppingSummary, error)
	GeneratePDF(items []*models.CountedItem) ([]byte, string, error)
	UploadPDF(ctx context.Context, content []byte, filename string) (string, error)
}

// CountableSummary computes the grid-header badge counts over the live
// collection: how many items are eligible for counting and how many of those
// sit below their minimum stock.
func CountableSummary(items []*models.InventoryItem) *models.ShoppingSummary {
	summary := &models.ShoppingSummary{GeneratedAt: time.Now()}
	for _, item := range items {
		if !item.Countable() {
			continue
		}
		summary.TotalCounted++
		if item.Quantity() < item.MinStockAmount {
			summary.NeedsPurchase++
		}
	}
	return summary
}

type shoppingListService struct {
	store        ObjectStore
	bucket       string
	summaryCache SummaryCache
}

func NewShoppingListService(store ObjectStore, bucket string, summaryCache SummaryCache) ShoppingListService {
	return &shoppingListService{store: store, bucket: bucket, summaryCache: summaryCache}
}

// FilterCounted narrows the receipt by a case-insensitive substring over name,
// location and default store.
func (s *shoppingListService) FilterCounted(items []*models.CountedItem, query string) []*models.CountedItem {
	if query == "" {
		return items
	}
	needle := strings.ToLower(query)

	var filtered []*models.CountedItem
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), needle) ||
			strings.Contains(strings.ToLower(item.Location), needle) ||
			strings.Contains(strings.ToLower(item.DefaultStore), needle) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// ToBuyItems keeps only items that actually need purchasing, grouped by their
// default store.
func (s *shoppingListService) ToBuyItems(items []*models.CountedItem) []*models.CountedItem {
	var toBuy []*models.CountedItem
	for _, item := range items {
		if item.ToBuy() > 0 {
			toBuy = append(toBuy, item)
		}
	}
	sort.SliceStable(toBuy, func(i, j int) bool {
		return toBuy[i].DefaultStore < toBuy[j].DefaultStore
	})
	return toBuy
}

// Summary computes the receipt badge counts and caches them for the grid.
func (s *shoppingListService) Summary(ctx context.Context, items []*models.CountedItem) *models.ShoppingSummary {
	summary := &models.ShoppingSummary{
		TotalCounted: len(items),
		GeneratedAt:  time.Now(),
	}
	for _, item := range items {
		if item.ToBuy() > 0 {
			summary.NeedsPurchase++
		}
	}
	if s.summaryCache != nil {
		if err := s.summaryCache.SetShoppingSummary(ctx, summary, time.Hour); err != nil {
			log.Printf("failed to cache shopping summary: %v", err)
		}
	}
	return summary
}

// LatestSummary returns the most recently cached badge counts; a cache miss
// yields (nil, nil) so callers can fall back to a live computation.
func (s *shoppingListService) LatestSummary(ctx context.Context) (*models.ShoppingSummary, error) {
	if s.summaryCache == nil {
		return nil, nil
	}
	return s.summaryCache.GetShoppingSummary(ctx)
}

// GeneratePDF renders the shopping list as an A4 PDF and returns the document
// bytes along with its date-stamped filename.
func (s *shoppingListService) GeneratePDF(items []*models.CountedItem) ([]byte, string, error) {
	toBuy := s.ToBuyItems(items)
	now := time.Now()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetFont("Arial", "", 8)
		pdf.Text(20, 290, fmt.Sprintf("Generated %s", now.Format("2006-01-02 15:04")))
		pdf.SetXY(150, 286)
		pdf.CellFormat(40, 8, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Text(105-pdf.GetStringWidth("Shopping List")/2, 15, "Shopping List")

	pdf.SetFont("Arial", "", 11)
	pdf.Text(20, 25, fmt.Sprintf("Date: %s", now.Format("2006-01-02")))
	pdf.Text(20, 32, fmt.Sprintf("Time: %s", now.Format("15:04")))

	writeHeader := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.Text(20, 60, "Item Name")
		pdf.Text(100, 60, "Current")
		pdf.Text(130, 60, "Min Stock")
		pdf.Text(160, 60, "To Buy")
		pdf.Text(180, 60, "Store")
		pdf.Line(20, 62, 190, 62)
		pdf.SetFont("Arial", "", 10)
	}
	writeHeader()

	y := 70.0
	for _, item := range toBuy {
		if y > 280 {
			pdf.AddPage()
			writeHeader()
			y = 70
		}
		pdf.Text(20, y, truncate(item.Name, 30))
		pdf.Text(100, y, strconv.Itoa(item.EffectiveQuantity()))
		pdf.Text(130, y, strconv.Itoa(item.MinStockAmount))
		pdf.Text(160, y, strconv.Itoa(item.ToBuy()))
		pdf.Text(180, y, truncate(item.DefaultStore, 15))
		y += 8
	}
	if len(toBuy) == 0 {
		pdf.Text(20, y, "Nothing to buy - all items are at or above minimum stock.")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render shopping list pdf: %w", err)
	}
	filename := fmt.Sprintf("shopping-list-%s.pdf", now.Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// UploadPDF stores the document in the object store and returns a presigned
// download link.
func (s *shoppingListService) UploadPDF(ctx context.Context, content []byte, filename string) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("object storage is not configured")
	}
	if err := s.store.EnsureBucketExists(ctx, s.bucket); err != nil {
		return "", fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}
	if err := s.store.UploadDocument(ctx, s.bucket, filename, bytes.NewReader(content), int64(len(content))); err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	url, err := s.store.GetPresignedURL(s.bucket, filename, presignedURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", filename, err)
	}
	return url, nil
}

// truncate cuts to max characters, not bytes, so multi-byte names stay valid.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
