package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/pkg/errors"
)

type adminRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *sql.DB, logger *zap.Logger) *adminRepository {
	return &adminRepository{
		db:     db,
		logger: logger,
	}
}

func (r *adminRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.AdminUser, error) {
	// bcrypt hashes are salted, so there is no direct lookup; iterate active
	// admins and verify the key against each hash. The admin set is small.
	query := `
		SELECT id, name, api_key_hash, role, is_active, created_at, updated_at
		FROM admin_users
		WHERE is_active = true
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query admin users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var admin domain.AdminUser
		err := rows.Scan(
			&admin.ID,
			&admin.Name,
			&admin.APIKeyHash,
			&admin.Role,
			&admin.IsActive,
			&admin.CreatedAt,
			&admin.UpdatedAt,
		)
		if err != nil {
			continue
		}

		if err := bcrypt.CompareHashAndPassword([]byte(admin.APIKeyHash), []byte(apiKey)); err == nil {
			return &admin, nil
		}
	}

	return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
}

func (r *adminRepository) Create(ctx context.Context, admin *domain.AdminUser) error {
	query := `
		INSERT INTO admin_users (id, name, api_key_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now()
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = now
	}
	if admin.UpdatedAt.IsZero() {
		admin.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		admin.ID,
		admin.Name,
		admin.APIKeyHash,
		admin.Role,
		admin.IsActive,
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create admin user", zap.Error(err))
		return err
	}
	return nil
}
