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

type shippingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewShippingRepository creates a new shipping repository
func NewShippingRepository(db *sql.DB, logger *zap.Logger) *shippingRepository {
	return &shippingRepository{
		db:     db,
		logger: logger,
	}
}

func (r *shippingRepository) GetActiveZones(ctx context.Context) ([]*domain.ShippingZone, error) {
	query := `
		SELECT id, name, countries, is_active, sort_order
		FROM shipping_zones
		WHERE is_active = true
		ORDER BY sort_order, name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query shipping zones", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var zones []*domain.ShippingZone
	for rows.Next() {
		var zone domain.ShippingZone
		if err := rows.Scan(&zone.ID, &zone.Name, pq.Array(&zone.Countries), &zone.IsActive, &zone.SortOrder); err != nil {
			return nil, err
		}
		zones = append(zones, &zone)
	}

	return zones, rows.Err()
}

const methodColumns = `id, zone_id, name, base_cost, cost_per_kg, min_weight, max_weight,
	min_order_amount, free_shipping_threshold, estimated_days_min, estimated_days_max, is_active`

func scanMethod(row interface{ Scan(...interface{}) error }) (*domain.ShippingMethod, error) {
	var method domain.ShippingMethod
	var minWeight, maxWeight, minOrderAmount, freeThreshold sql.NullString

	err := row.Scan(
		&method.ID,
		&method.ZoneID,
		&method.Name,
		&method.BaseCost,
		&method.CostPerKg,
		&minWeight,
		&maxWeight,
		&minOrderAmount,
		&freeThreshold,
		&method.EstimatedDaysMin,
		&method.EstimatedDaysMax,
		&method.IsActive,
	)
	if err != nil {
		return nil, err
	}

	assign := func(v sql.NullString, dst **decimal.Decimal) error {
		if !v.Valid {
			return nil
		}
		d, err := decimal.NewFromString(v.String)
		if err != nil {
			return err
		}
		*dst = &d
		return nil
	}
	if err := assign(minWeight, &method.MinWeight); err != nil {
		return nil, err
	}
	if err := assign(maxWeight, &method.MaxWeight); err != nil {
		return nil, err
	}
	if err := assign(minOrderAmount, &method.MinOrderAmount); err != nil {
		return nil, err
	}
	if err := assign(freeThreshold, &method.FreeShippingThreshold); err != nil {
		return nil, err
	}

	return &method, nil
}

func (r *shippingRepository) loadBrackets(ctx context.Context, methodID uuid.UUID) ([]domain.WeightBracket, error) {
	query := `
		SELECT min_weight, max_weight, cost
		FROM shipping_weight_brackets
		WHERE method_id = $1
		ORDER BY min_weight
	`

	rows, err := r.db.QueryContext(ctx, query, methodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brackets []domain.WeightBracket
	for rows.Next() {
		var bracket domain.WeightBracket
		var maxWeight sql.NullString
		if err := rows.Scan(&bracket.MinWeight, &maxWeight, &bracket.Cost); err != nil {
			return nil, err
		}
		if maxWeight.Valid {
			d, err := decimal.NewFromString(maxWeight.String)
			if err != nil {
				return nil, err
			}
			bracket.MaxWeight = &d
		}
		brackets = append(brackets, bracket)
	}

	return brackets, rows.Err()
}

func (r *shippingRepository) GetMethodsByZone(ctx context.Context, zoneID uuid.UUID) ([]*domain.ShippingMethod, error) {
	query := `
		SELECT ` + methodColumns + `
		FROM shipping_methods
		WHERE zone_id = $1 AND is_active = true
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, zoneID)
	if err != nil {
		r.logger.Error("Failed to query shipping methods", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var methods []*domain.ShippingMethod
	for rows.Next() {
		method, err := scanMethod(rows)
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, method := range methods {
		brackets, err := r.loadBrackets(ctx, method.ID)
		if err != nil {
			r.logger.Error("Failed to load weight brackets", zap.Error(err))
			return nil, err
		}
		method.Brackets = brackets
	}

	return methods, nil
}

func (r *shippingRepository) GetMethod(ctx context.Context, id uuid.UUID) (*domain.ShippingMethod, error) {
	query := `SELECT ` + methodColumns + ` FROM shipping_methods WHERE id = $1`

	method, err := scanMethod(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "shipping method", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get shipping method", zap.Error(err))
		return nil, err
	}

	method.Brackets, err = r.loadBrackets(ctx, method.ID)
	if err != nil {
		r.logger.Error("Failed to load weight brackets", zap.Error(err))
		return nil, err
	}

	return method, nil
}

func (r *shippingRepository) CreateZone(ctx context.Context, zone *domain.ShippingZone) error {
	if zone.ID == uuid.Nil {
		zone.ID = uuid.New()
	}

	query := `
		INSERT INTO shipping_zones (id, name, countries, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, zone.ID, zone.Name, pq.Array(zone.Countries), zone.IsActive, zone.SortOrder)
	if err != nil {
		r.logger.Error("Failed to create shipping zone", zap.Error(err))
		return err
	}
	return nil
}

func (r *shippingRepository) CreateMethod(ctx context.Context, method *domain.ShippingMethod) error {
	if method.ID == uuid.Nil {
		method.ID = uuid.New()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO shipping_methods (` + methodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.ExecContext(ctx, query,
		method.ID,
		method.ZoneID,
		method.Name,
		method.BaseCost,
		method.CostPerKg,
		decimalOrNil(method.MinWeight),
		decimalOrNil(method.MaxWeight),
		decimalOrNil(method.MinOrderAmount),
		decimalOrNil(method.FreeShippingThreshold),
		method.EstimatedDaysMin,
		method.EstimatedDaysMax,
		method.IsActive,
	)
	if err != nil {
		r.logger.Error("Failed to create shipping method", zap.Error(err))
		return err
	}

	bracketQuery := `
		INSERT INTO shipping_weight_brackets (id, method_id, min_weight, max_weight, cost)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, bracket := range method.Brackets {
		_, err = tx.ExecContext(ctx, bracketQuery,
			uuid.New(),
			method.ID,
			bracket.MinWeight,
			decimalOrNil(bracket.MaxWeight),
			bracket.Cost,
		)
		if err != nil {
			r.logger.Error("Failed to create weight bracket", zap.Error(err))
			return err
		}
	}

	return tx.Commit()
}

func decimalOrNil(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return *d
}
