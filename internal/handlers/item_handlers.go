package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"stocktake/internal/common"
	"stocktake/internal/models"
	"stocktake/internal/services"
)

// ItemHandlers handles HTTP requests for the inventory grid
type ItemHandlers struct {
	inventory services.InventoryService
}

// NewItemHandlers creates a new item handlers instance
func NewItemHandlers(inventory services.InventoryService) *ItemHandlers {
	return &ItemHandlers{inventory: inventory}
}

// ListItems serves one page of the filtered grid. Query parameters: q (search
// text), group (product group filter), page.
func (h *ItemHandlers) ListItems(c echo.Context) error {
	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return common.SendClientError(c, http.StatusBadRequest, "page must be a positive integer")
		}
		page = parsed
	}
	pageSize := services.DefaultPageSize
	if raw := c.QueryParam("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return common.SendClientError(c, http.StatusBadRequest, "page_size must be a positive integer")
		}
		pageSize = parsed
	}

	result := h.inventory.Page(c.QueryParam("q"), c.QueryParam("group"), page, pageSize)
	return c.JSON(http.StatusOK, result)
}

// GetItem returns a single item by id.
func (h *ItemHandlers) GetItem(c echo.Context) error {
	id, err := parseItemID(c)
	if err != nil {
		return err
	}
	item, ok := h.inventory.Get(id)
	if !ok {
		return common.SendNotFoundError(c, "Item")
	}
	return c.JSON(http.StatusOK, item)
}

// CreateItem adds a new item from the form payload. The id is assigned by the
// store.
func (h *ItemHandlers) CreateItem(c echo.Context) error {
	var form models.ItemForm
	if err := c.Bind(&form); err != nil {
		return common.SendClientError(c, http.StatusBadRequest, "Invalid request body")
	}

	item, err := h.inventory.Create(c.Request().Context(), &form)
	if err != nil {
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			return common.SendValidationError(c, verr.Notification(), verr.Fields)
		}
		return common.SendServerError(c, "Failed to create item")
	}
	return c.JSON(http.StatusCreated, item)
}

// UpdateItem applies a full-field edit to an existing item.
func (h *ItemHandlers) UpdateItem(c echo.Context) error {
	id, err := parseItemID(c)
	if err != nil {
		return err
	}
	if _, ok := h.inventory.Get(id); !ok {
		return common.SendNotFoundError(c, "Item")
	}

	var form models.ItemForm
	if err := c.Bind(&form); err != nil {
		return common.SendClientError(c, http.StatusBadRequest, "Invalid request body")
	}

	item, err := h.inventory.UpdateFields(c.Request().Context(), id, &form)
	if err != nil {
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			return common.SendValidationError(c, verr.Notification(), verr.Fields)
		}
		return common.SendServerError(c, "Failed to update item")
	}
	return c.JSON(http.StatusOK, item)
}

// UpdateQuantity sets the item's current quantity directly from the grid.
func (h *ItemHandlers) UpdateQuantity(c echo.Context) error {
	id, err := parseItemID(c)
	if err != nil {
		return err
	}
	if _, ok := h.inventory.Get(id); !ok {
		return common.SendNotFoundError(c, "Item")
	}

	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Quantity == nil {
		return common.SendClientError(c, http.StatusBadRequest, "quantity is required")
	}
	if *req.Quantity < 0 {
		return common.SendClientError(c, http.StatusBadRequest, "quantity cannot be negative")
	}

	if err := h.inventory.SetQuantity(c.Request().Context(), id, *req.Quantity); err != nil {
		return common.SendServerError(c, "Failed to update quantity")
	}
	item, _ := h.inventory.Get(id)
	return c.JSON(http.StatusOK, item)
}

// DeleteItem removes an item from the store and the grid.
func (h *ItemHandlers) DeleteItem(c echo.Context) error {
	id, err := parseItemID(c)
	if err != nil {
		return err
	}
	if _, ok := h.inventory.Get(id); !ok {
		return common.SendNotFoundError(c, "Item")
	}

	if err := h.inventory.Delete(c.Request().Context(), id); err != nil {
		return common.SendServerError(c, "Failed to delete item")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Item deleted"})
}

// ListProductGroups serves the distinct product groups for the filter and
// form selectors.
func (h *ItemHandlers) ListProductGroups(c echo.Context) error {
	groups, err := h.inventory.ProductGroups(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Failed to load product groups")
	}
	return c.JSON(http.StatusOK, map[string][]string{"groups": groups})
}

func parseItemID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid item id")
	}
	return id, nil
}
