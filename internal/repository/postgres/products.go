package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/pkg/errors"
)

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

const productColumns = `id, name, sku, price, sale_price, stock_quantity, weight, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*domain.Product, error) {
	var product domain.Product
	var salePrice, weight sql.NullString

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.SKU,
		&product.Price,
		&salePrice,
		&product.StockQuantity,
		&weight,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if salePrice.Valid {
		d, err := decimal.NewFromString(salePrice.String)
		if err != nil {
			return nil, err
		}
		product.SalePrice = &d
	}
	if weight.Valid {
		d, err := decimal.NewFromString(weight.String)
		if err != nil {
			return nil, err
		}
		product.Weight = &d
	}

	return &product, nil
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get product by ID", zap.Error(err))
		return nil, err
	}

	return product, nil
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*domain.Product{}, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
	`

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, query, pq.Array(idStrings))
	if err != nil {
		r.logger.Error("Failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	products := make(map[uuid.UUID]*domain.Product, len(ids))
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			r.logger.Error("Failed to scan product", zap.Error(err))
			return nil, err
		}
		products[product.ID] = product
	}

	return products, rows.Err()
}

func (r *productRepository) GetWholesaleTiers(ctx context.Context, productID uuid.UUID) ([]domain.WholesaleTier, error) {
	query := `
		SELECT id, product_id, min_quantity, price
		FROM wholesale_tiers
		WHERE product_id = $1
		ORDER BY min_quantity
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		r.logger.Error("Failed to query wholesale tiers", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var tiers []domain.WholesaleTier
	for rows.Next() {
		var tier domain.WholesaleTier
		if err := rows.Scan(&tier.ID, &tier.ProductID, &tier.MinQuantity, &tier.Price); err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}

	return tiers, rows.Err()
}
