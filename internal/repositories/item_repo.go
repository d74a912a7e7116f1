package repositories

import (
	"context"

	"stocktake/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of pgxpool.Pool the repositories use. pgxmock
// implements the same signatures.
type Database interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// ItemRepository is the stateless gateway to the remote item store. The store
// table is "notes" and its column identifiers contain spaces; they are quoted
// verbatim here and nowhere else.
type ItemRepository interface {
	List(ctx context.Context) ([]*models.InventoryItem, error)
	GetByID(ctx context.Context, id int) (*models.InventoryItem, error)
	Create(ctx context.Context, fields *models.ItemFields) (*models.InventoryItem, error)
	UpdateQuantity(ctx context.Context, id, quantity int) error
	UpdateFields(ctx context.Context, id int, fields *models.ItemFields) (*models.InventoryItem, error)
	Delete(ctx context.Context, id int) error
	DistinctProductGroups(ctx context.Context) ([]string, error)
}

type itemRepo struct {
	db Database
}

func NewItemRepo(db Database) ItemRepository {
	return &itemRepo{db: db}
}

const itemColumns = `id, name, location, "min stock amount", "default quantity unit purchase", "quantity unit stock", "product group", "default store", "current quantity", "last quantity update"`

func scanItem(row pgx.Row) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	err := row.Scan(&item.ID, &item.Name, &item.Location, &item.MinStockAmount,
		&item.DefaultPurchaseUnit, &item.StockUnit, &item.ProductGroup,
		&item.DefaultStore, &item.CurrentQuantity, &item.LastQuantityUpdate)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *itemRepo) List(ctx context.Context) ([]*models.InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM notes
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *itemRepo) GetByID(ctx context.Context, id int) (*models.InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM notes
		WHERE id = $1
	`
	return scanItem(r.db.QueryRow(ctx, query, id))
}

// Create assigns the id store-side in a single statement (max existing id + 1,
// or 1 for the first row) and stamps the quantity timestamp.
func (r *itemRepo) Create(ctx context.Context, fields *models.ItemFields) (*models.InventoryItem, error) {
	query := `
		INSERT INTO notes (id, name, location, "min stock amount", "default quantity unit purchase", "quantity unit stock", "product group", "default store", "current quantity", "last quantity update")
		SELECT COALESCE(MAX(id), 0) + 1, $1, $2, $3, $4, $5, $6, $7, $8, NOW()
		FROM notes
		RETURNING ` + itemColumns + `
	`
	return scanItem(r.db.QueryRow(ctx, query,
		fields.Name, fields.Location, fields.MinStockAmount,
		fields.DefaultPurchaseUnit, fields.StockUnit, fields.ProductGroup,
		fields.DefaultStore, fields.CurrentQuantity))
}

func (r *itemRepo) UpdateQuantity(ctx context.Context, id, quantity int) error {
	query := `
		UPDATE notes
		SET "current quantity" = $1, "last quantity update" = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, quantity, id)
	return err
}

func (r *itemRepo) UpdateFields(ctx context.Context, id int, fields *models.ItemFields) (*models.InventoryItem, error) {
	query := `
		UPDATE notes
		SET name = $1, location = $2, "min stock amount" = $3, "default quantity unit purchase" = $4, "quantity unit stock" = $5, "product group" = $6, "default store" = $7, "current quantity" = $8, "last quantity update" = NOW()
		WHERE id = $9
		RETURNING ` + itemColumns + `
	`
	return scanItem(r.db.QueryRow(ctx, query,
		fields.Name, fields.Location, fields.MinStockAmount,
		fields.DefaultPurchaseUnit, fields.StockUnit, fields.ProductGroup,
		fields.DefaultStore, fields.CurrentQuantity, id))
}

func (r *itemRepo) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM notes WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *itemRepo) DistinctProductGroups(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT "product group"
		FROM notes
		WHERE "product group" IS NOT NULL AND "product group" <> ''
		ORDER BY "product group" ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var group string
		if err := rows.Scan(&group); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}
