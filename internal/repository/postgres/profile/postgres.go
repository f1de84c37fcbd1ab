package profile

import (
	"context"
	"errors"

	profiledomain "carelink-go/internal/domain/profile"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetProfile(ctx context.Context, profileID string) (*profiledomain.Profile, error) {
	var p profiledomain.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", profileID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profiledomain.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) GetPrimaryByUser(ctx context.Context, userID string) (*profiledomain.Profile, error) {
	var p profiledomain.Profile
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_primary", userID).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profiledomain.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) FindUserByPhone(ctx context.Context, phones []string) (string, bool, error) {
	var p profiledomain.Profile
	// Prefer primary profiles, oldest first, when several share a phone.
	err := r.db.WithContext(ctx).
		Where("phone in ?", phones).
		Order("is_primary desc, created_at asc").
		Limit(1).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return p.UserID, true, nil
}

func (r *PostgresRepository) ListByUsers(ctx context.Context, userIDs []string) ([]profiledomain.Profile, error) {
	var profiles []profiledomain.Profile
	if err := r.db.WithContext(ctx).
		Where("user_id in ?", userIDs).
		Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, p *profiledomain.Profile) error {
	// One primary profile per user; refresh its identity fields in place. A
	// partial unique index on user_id where is_primary backs the conflict
	// target.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "is_primary"},
		}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "phone", "updated_at"}),
	}).Create(p).Error
}
