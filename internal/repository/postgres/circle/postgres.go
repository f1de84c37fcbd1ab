package circle

import (
	"context"
	"errors"

	circledomain "carelink-go/internal/domain/circle"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetLink(ctx context.Context, linkID string) (*circledomain.Link, error) {
	var link circledomain.Link
	if err := r.db.WithContext(ctx).Where("id = ?", linkID).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, circledomain.ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *PostgresRepository) CreateLink(ctx context.Context, link *circledomain.Link) error {
	// A partial unique index on (requester_id, recipient_id) where status is
	// not declined backs the one-live-link rule.
	err := r.db.WithContext(ctx).Create(link).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return circledomain.ErrInviteExists
	}
	return err
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, linkID, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&circledomain.Link{}).
		Where("id = ? AND status = ?", linkID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) UpdateRelationship(ctx context.Context, linkID, relationship string) error {
	result := r.db.WithContext(ctx).
		Model(&circledomain.Link{}).
		Where("id = ?", linkID).
		Update("relationship", relationship)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return circledomain.ErrLinkNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteLink(ctx context.Context, linkID string) error {
	return r.db.WithContext(ctx).Delete(&circledomain.Link{}, "id = ?", linkID).Error
}

func (r *PostgresRepository) ListByRequester(ctx context.Context, userID string) ([]circledomain.Link, error) {
	var links []circledomain.Link
	if err := r.db.WithContext(ctx).
		Where("requester_id = ?", userID).
		Order("created_at desc").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *PostgresRepository) ListByRecipient(ctx context.Context, userID string) ([]circledomain.Link, error) {
	var links []circledomain.Link
	if err := r.db.WithContext(ctx).
		Where("recipient_id = ?", userID).
		Order("created_at desc").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}
