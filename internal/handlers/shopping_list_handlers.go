package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"stocktake/internal/common"
	"stocktake/internal/models"
	"stocktake/internal/services"
)

// ShoppingListHandlers serves the receipt view of a completed counting session
// and the grid-header badge counts
type ShoppingListHandlers struct {
	counting  services.CountingService
	shopping  services.ShoppingListService
	inventory services.InventoryService
}

// NewShoppingListHandlers creates a new shopping list handlers instance
func NewShoppingListHandlers(counting services.CountingService, shopping services.ShoppingListService, inventory services.InventoryService) *ShoppingListHandlers {
	return &ShoppingListHandlers{counting: counting, shopping: shopping, inventory: inventory}
}

// GetSummary serves the badge counts for the grid header: the cached value
// maintained by the background refresh when present, otherwise a live
// computation over the collection.
func (h *ShoppingListHandlers) GetSummary(c echo.Context) error {
	summary, err := h.shopping.LatestSummary(c.Request().Context())
	if err == nil && summary != nil {
		return c.JSON(http.StatusOK, summary)
	}
	return c.JSON(http.StatusOK, services.CountableSummary(h.inventory.Items()))
}

// GetShoppingList returns the counted items of a session as the receipt view,
// optionally narrowed by the q search parameter.
func (h *ShoppingListHandlers) GetShoppingList(c echo.Context) error {
	items, err := h.sessionItems(c)
	if err != nil {
		return err
	}

	filtered := h.shopping.FilterCounted(items, c.QueryParam("q"))
	summary := h.shopping.Summary(c.Request().Context(), filtered)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":   filtered,
		"to_buy":  h.shopping.ToBuyItems(filtered),
		"summary": summary,
	})
}

// DownloadPDF streams the shopping list as a PDF attachment.
func (h *ShoppingListHandlers) DownloadPDF(c echo.Context) error {
	items, err := h.sessionItems(c)
	if err != nil {
		return err
	}

	content, filename, err := h.shopping.GeneratePDF(items)
	if err != nil {
		return common.SendServerError(c, "Failed to generate PDF")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "application/pdf", content)
}

// SharePDF uploads the shopping list PDF to object storage and returns a
// presigned download link.
func (h *ShoppingListHandlers) SharePDF(c echo.Context) error {
	items, err := h.sessionItems(c)
	if err != nil {
		return err
	}

	content, filename, err := h.shopping.GeneratePDF(items)
	if err != nil {
		return common.SendServerError(c, "Failed to generate PDF")
	}

	url, err := h.shopping.UploadPDF(c.Request().Context(), content, filename)
	if err != nil {
		return common.SendServerError(c, "Failed to upload PDF")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"filename": filename,
		"url":      url,
	})
}

func (h *ShoppingListHandlers) sessionItems(c echo.Context) ([]*models.CountedItem, error) {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return nil, err
	}
	status, err := h.counting.Status(c.Request().Context(), sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Counting session not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to load counting session")
	}
	return status.Session.CountedList(), nil
}
