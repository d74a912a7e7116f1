package models

import (
	"time"
)

// InventoryItem is one row of stock. The remote table's column names contain
// spaces; that mapping lives in the repository only, the rest of the code works
// with this typed record.
type InventoryItem struct {
	ID                  int        `json:"id"`
	Name                string     `json:"name"`
	Location            string     `json:"location"`
	MinStockAmount      int        `json:"min_stock_amount"`
	DefaultPurchaseUnit string     `json:"default_purchase_unit"`
	StockUnit           string     `json:"stock_unit"`
	ProductGroup        string     `json:"product_group"`
	DefaultStore        string     `json:"default_store"`
	CurrentQuantity     *int       `json:"current_quantity,omitempty"`
	LastQuantityUpdate  *time.Time `json:"last_quantity_update,omitempty"`
}

// Quantity returns the persisted current quantity, treating absent as 0.
func (i *InventoryItem) Quantity() int {
	if i.CurrentQuantity == nil {
		return 0
	}
	return *i.CurrentQuantity
}

// Countable reports whether the item is eligible for the counting workflow.
func (i *InventoryItem) Countable() bool {
	return i.MinStockAmount > 0
}

// CountedItem is an InventoryItem annotated with the count entered during a
// counting session. Ephemeral: lives only in session state.
type CountedItem struct {
	InventoryItem
	CurrentCount int       `json:"current_count"`
	CountedAt    time.Time `json:"counted_at"`
}

// EffectiveQuantity is the quantity used for shopping-list math: the persisted
// current quantity when present, else the session count, else 0.
func (c *CountedItem) EffectiveQuantity() int {
	if c.CurrentQuantity != nil && *c.CurrentQuantity != 0 {
		return *c.CurrentQuantity
	}
	if c.CurrentCount != 0 {
		return c.CurrentCount
	}
	return 0
}

// ToBuy is the purchase quantity for the shopping list, never negative.
func (c *CountedItem) ToBuy() int {
	toBuy := c.MinStockAmount - c.EffectiveQuantity()
	if toBuy < 0 {
		return 0
	}
	return toBuy
}

// ItemForm is the raw create/edit form payload. Numeric fields are pointers so
// a missing field can be told apart from an explicit zero.
type ItemForm struct {
	Name                string `json:"name"`
	Location            string `json:"location"`
	ProductGroup        string `json:"product_group"`
	MinStockAmount      *int   `json:"min_stock_amount"`
	CurrentQuantity     *int   `json:"current_quantity"`
	DefaultPurchaseUnit string `json:"default_purchase_unit"`
	StockUnit           string `json:"stock_unit"`
	DefaultStore        string `json:"default_store"`
}

// ItemFields carries the editable field set for create and full-field update.
type ItemFields struct {
	Name                string `json:"name"`
	Location            string `json:"location"`
	ProductGroup        string `json:"product_group"`
	MinStockAmount      int    `json:"min_stock_amount"`
	CurrentQuantity     int    `json:"current_quantity"`
	DefaultPurchaseUnit string `json:"default_purchase_unit"`
	StockUnit           string `json:"stock_unit"`
	DefaultStore        string `json:"default_store"`
}

// PageEllipsis marks a collapsed gap in a page-button window.
const PageEllipsis = -1

// PageWindow returns the page numbers to render for a pagination control:
// page 1, the last page, the current page and its immediate neighbours, with
// collapsed gaps represented by PageEllipsis.
func PageWindow(current, total int) []int {
	if total <= 0 {
		return nil
	}
	var window []int
	prev := 0
	for page := 1; page <= total; page++ {
		if page != 1 && page != total && abs(page-current) > 1 {
			continue
		}
		if prev != 0 && page != prev+1 {
			window = append(window, PageEllipsis)
		}
		window = append(window, page)
		prev = page
	}
	return window
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
