package services

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"stocktake/internal/models"
)

func countedFixture() []*models.CountedItem {
	counted := func(item models.InventoryItem, count int) *models.CountedItem {
		return &models.CountedItem{InventoryItem: item, CurrentCount: count, CountedAt: time.Now()}
	}
	return []*models.CountedItem{
		counted(models.InventoryItem{ID: 1, Name: "Cola", Location: "Cellar", MinStockAmount: 24, DefaultStore: "Metro", DefaultPurchaseUnit: "crate"}, 10),
		counted(models.InventoryItem{ID: 2, Name: "Tonic Water", Location: "Bar", MinStockAmount: 6, DefaultStore: "Metro", DefaultPurchaseUnit: "crate"}, 8),
		counted(models.InventoryItem{ID: 3, Name: "Gin", Location: "Bar shelf", MinStockAmount: 3, DefaultStore: "Vinmonopolet", DefaultPurchaseUnit: "bottle"}, 1),
		counted(models.InventoryItem{ID: 5, Name: "Dark Rum", Location: "Cellar", MinStockAmount: 2, DefaultStore: "Albert", DefaultPurchaseUnit: "bottle"}, 0),
	}
}

type ShoppingListServiceTestSuite struct {
	suite.Suite
	mockStore *MockObjectStore
	service   ShoppingListService
	ctx       context.Context
}

func (suite *ShoppingListServiceTestSuite) SetupTest() {
	suite.mockStore = &MockObjectStore{}
	suite.service = NewShoppingListService(suite.mockStore, "shopping-lists", nil)
	suite.ctx = context.Background()
}

func TestShoppingListServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ShoppingListServiceTestSuite))
}

func (suite *ShoppingListServiceTestSuite) TestToBuy_NeverNegative() {
	for _, item := range countedFixture() {
		assert.GreaterOrEqual(suite.T(), item.ToBuy(), 0, item.Name)
	}

	// counted above minimum yields zero, not a negative purchase
	over := &models.CountedItem{
		InventoryItem: models.InventoryItem{MinStockAmount: 2},
		CurrentCount:  10,
	}
	assert.Equal(suite.T(), 0, over.ToBuy())
}

func (suite *ShoppingListServiceTestSuite) TestToBuy_UsesStoredQuantityOverCount() {
	item := &models.CountedItem{
		InventoryItem: models.InventoryItem{MinStockAmount: 10, CurrentQuantity: intPtr(4)},
		CurrentCount:  1,
	}
	assert.Equal(suite.T(), 6, item.ToBuy())
}

func (suite *ShoppingListServiceTestSuite) TestToBuyItems_OnlyShortfallsSortedByStore() {
	toBuy := suite.service.ToBuyItems(countedFixture())

	// Dark Rum was counted at 0 against a minimum of 2, so it needs buying;
	// Tonic Water (8 of 6) does not
	names := make([]string, len(toBuy))
	for i, item := range toBuy {
		names[i] = item.Name
	}
	assert.Equal(suite.T(), []string{"Dark Rum", "Cola", "Gin"}, names)
}

func (suite *ShoppingListServiceTestSuite) TestFilterCounted_MatchesNameLocationAndStore() {
	items := countedFixture()

	assert.Len(suite.T(), suite.service.FilterCounted(items, "cola"), 1)
	assert.Len(suite.T(), suite.service.FilterCounted(items, "cellar"), 2)
	assert.Len(suite.T(), suite.service.FilterCounted(items, "metro"), 2)
	assert.Len(suite.T(), suite.service.FilterCounted(items, ""), 4)
	assert.Empty(suite.T(), suite.service.FilterCounted(items, "nowhere"))
}

func (suite *ShoppingListServiceTestSuite) TestSummary_CountsShortfalls() {
	summary := suite.service.Summary(suite.ctx, countedFixture())
	assert.Equal(suite.T(), 4, summary.TotalCounted)
	assert.Equal(suite.T(), 3, summary.NeedsPurchase)
}

func (suite *ShoppingListServiceTestSuite) TestSummary_SingleItemBelowMinimum() {
	items := []*models.CountedItem{
		{InventoryItem: models.InventoryItem{ID: 3, Name: "Gin", MinStockAmount: 3}, CurrentCount: 1},
	}
	summary := suite.service.Summary(suite.ctx, items)
	assert.Equal(suite.T(), 1, summary.TotalCounted)
	assert.Equal(suite.T(), 1, summary.NeedsPurchase)
}

func (suite *ShoppingListServiceTestSuite) TestSummary_ReadableThroughLatestSummary() {
	cache := &fakeSummaryCache{}
	service := NewShoppingListService(suite.mockStore, "shopping-lists", cache)

	written := service.Summary(suite.ctx, countedFixture())

	cached, err := service.LatestSummary(suite.ctx)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), written.TotalCounted, cached.TotalCounted)
	assert.Equal(suite.T(), written.NeedsPurchase, cached.NeedsPurchase)
}

func (suite *ShoppingListServiceTestSuite) TestSummary_CacheWriteFailureStillReturnsCounts() {
	cache := &fakeSummaryCache{setErr: assert.AnError}
	service := NewShoppingListService(suite.mockStore, "shopping-lists", cache)

	summary := service.Summary(suite.ctx, countedFixture())
	assert.Equal(suite.T(), 4, summary.TotalCounted)
	assert.Equal(suite.T(), 3, summary.NeedsPurchase)
}

func (suite *ShoppingListServiceTestSuite) TestLatestSummary_MissReturnsNil() {
	cache := &fakeSummaryCache{}
	service := NewShoppingListService(suite.mockStore, "shopping-lists", cache)

	summary, err := service.LatestSummary(suite.ctx)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), summary)
}

func TestCountableSummary(t *testing.T) {
	summary := CountableSummary(fixtureItems())

	// Napkins (min stock 0) is not countable; Cola (12 of 24), Tonic Water
	// (none of 6) and Dark Rum (0 of 2) sit below minimum, Gin (5 of 3) does not
	assert.Equal(t, 4, summary.TotalCounted)
	assert.Equal(t, 3, summary.NeedsPurchase)
	assert.False(t, summary.GeneratedAt.IsZero())
}

func (suite *ShoppingListServiceTestSuite) TestGeneratePDF_ProducesDocumentAndFilename() {
	content, filename, err := suite.service.GeneratePDF(countedFixture())
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), bytes.HasPrefix(content, []byte("%PDF")))
	assert.Equal(suite.T(), fmt.Sprintf("shopping-list-%s.pdf", time.Now().Format("2006-01-02")), filename)
}

func (suite *ShoppingListServiceTestSuite) TestGeneratePDF_EmptyListStillRenders() {
	content, _, err := suite.service.GeneratePDF(nil)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), bytes.HasPrefix(content, []byte("%PDF")))
}

func (suite *ShoppingListServiceTestSuite) TestGeneratePDF_ManyItemsPaginate() {
	var items []*models.CountedItem
	for i := 1; i <= 80; i++ {
		items = append(items, &models.CountedItem{
			InventoryItem: models.InventoryItem{
				ID: i, Name: fmt.Sprintf("Item %d", i), MinStockAmount: 10, DefaultStore: "Metro",
			},
			CurrentCount: 1,
		})
	}
	content, _, err := suite.service.GeneratePDF(items)
	assert.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), content)
}

func TestTruncate_CutsCharactersNotBytes(t *testing.T) {
	assert.Equal(t, "Grøn Tubor", truncate("Grøn Tuborg Årgangsøl", 10))
	assert.True(t, utf8.ValidString(truncate("Gløgg med mandler og rosiner på flaske", 30)))
	assert.Equal(t, "Cola", truncate("Cola", 30))
}

func (suite *ShoppingListServiceTestSuite) TestUploadPDF_ReturnsPresignedLink() {
	content := []byte("%PDF-1.4 test")
	suite.mockStore.On("EnsureBucketExists", suite.ctx, "shopping-lists").Return(nil)
	suite.mockStore.On("UploadDocument", suite.ctx, "shopping-lists", "shopping-list-2026-09-01.pdf",
		mock.Anything, int64(len(content))).Return(nil)
	suite.mockStore.On("GetPresignedURL", "shopping-lists", "shopping-list-2026-09-01.pdf",
		presignedURLExpiry).Return("https://minio.local/link", nil)

	url, err := suite.service.UploadPDF(suite.ctx, content, "shopping-list-2026-09-01.pdf")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "https://minio.local/link", url)
	suite.mockStore.AssertExpectations(suite.T())
}

func (suite *ShoppingListServiceTestSuite) TestUploadPDF_BucketFailure() {
	suite.mockStore.On("EnsureBucketExists", suite.ctx, "shopping-lists").
		Return(assert.AnError)

	_, err := suite.service.UploadPDF(suite.ctx, []byte("%PDF"), "x.pdf")
	assert.Error(suite.T(), err)
	suite.mockStore.AssertNotCalled(suite.T(), "UploadDocument",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
