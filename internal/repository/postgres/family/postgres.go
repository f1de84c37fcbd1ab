package family

import (
	"context"
	"database/sql"
	"errors"
	"time"

	familydomain "carelink-go/internal/domain/family"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// txMaxAttempts bounds retries of serializable transactions that Postgres
// aborts with a serialization failure.
const txMaxAttempts = 3

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Transaction runs fn in a serializable transaction. Serializable is what
// makes the approval's count-then-insert safe: two concurrent approvals
// touching the same family cannot both commit against the same member
// count, Postgres aborts one with SQLSTATE 40001 and fn is retried.
func (r *PostgresRepository) Transaction(ctx context.Context, fn func(familydomain.Repository) error) error {
	opts := sql.TxOptions{Isolation: sql.LevelSerializable}
	var err error
	for attempt := 0; attempt < txMaxAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&PostgresRepository{db: tx})
		}, &opts)
		if !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func (r *PostgresRepository) GetFamily(ctx context.Context, familyID string) (*familydomain.Family, error) {
	var family familydomain.Family
	if err := r.db.WithContext(ctx).Where("id = ?", familyID).First(&family).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, familydomain.ErrFamilyNotFound
		}
		return nil, err
	}
	return &family, nil
}

func (r *PostgresRepository) GetFamilyByUser(ctx context.Context, userID string) (*familydomain.Family, error) {
	var family familydomain.Family
	err := r.db.WithContext(ctx).
		Table("families").
		Joins("join family_members on family_members.family_id = families.id").
		Where("family_members.user_id = ?", userID).
		Limit(1).
		First(&family).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, familydomain.ErrFamilyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &family, nil
}

func (r *PostgresRepository) GetMemberByUser(ctx context.Context, userID string) (*familydomain.FamilyMember, error) {
	var member familydomain.FamilyMember
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, familydomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, familyID string) ([]familydomain.FamilyMember, error) {
	var members []familydomain.FamilyMember
	if err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("joined_at asc").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) CountMembers(ctx context.Context, familyID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&familydomain.FamilyMember{}).
		Where("family_id = ?", familyID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) IsUserInFamily(ctx context.Context, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&familydomain.FamilyMember{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) CreateFamily(ctx context.Context, family *familydomain.Family) error {
	return r.db.WithContext(ctx).Create(family).Error
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *familydomain.FamilyMember) error {
	// The unique index on user_id turns a concurrent double-join into a
	// duplicated-key error instead of a second membership row.
	err := r.db.WithContext(ctx).Create(member).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return familydomain.ErrAlreadyInFamily
	}
	return err
}

func (r *PostgresRepository) DeleteFamily(ctx context.Context, familyID string) error {
	return r.db.WithContext(ctx).Delete(&familydomain.Family{}, "id = ?", familyID).Error
}

func (r *PostgresRepository) DeleteMembersByFamily(ctx context.Context, familyID string) error {
	return r.db.WithContext(ctx).Where("family_id = ?", familyID).Delete(&familydomain.FamilyMember{}).Error
}

func (r *PostgresRepository) CreateInviteCode(ctx context.Context, code *familydomain.InviteCode) error {
	err := r.db.WithContext(ctx).Create(code).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race for this code value against a concurrent mint.
		return familydomain.ErrCodeTaken
	}
	return err
}

func (r *PostgresRepository) GetInviteCode(ctx context.Context, code string) (*familydomain.InviteCode, error) {
	var invite familydomain.InviteCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, familydomain.ErrInvalidCode
		}
		return nil, err
	}
	return &invite, nil
}

func (r *PostgresRepository) IsCodeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&familydomain.InviteCode{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) CreateJoinRequest(ctx context.Context, request *familydomain.JoinRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *PostgresRepository) GetJoinRequest(ctx context.Context, requestID string) (*familydomain.JoinRequest, error) {
	var request familydomain.JoinRequest
	if err := r.db.WithContext(ctx).Where("id = ?", requestID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, familydomain.ErrRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *PostgresRepository) GetLivePendingRequest(ctx context.Context, requesterID string, cutoff time.Time) (*familydomain.JoinRequest, error) {
	var request familydomain.JoinRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND status = ? AND created_at >= ?", requesterID, familydomain.RequestPending, cutoff).
		Limit(1).
		First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *PostgresRepository) ListPendingRequests(ctx context.Context, familyID string, cutoff time.Time) ([]familydomain.JoinRequest, error) {
	var requests []familydomain.JoinRequest
	if err := r.db.WithContext(ctx).
		Where("family_id = ? AND status = ? AND created_at >= ?", familyID, familydomain.RequestPending, cutoff).
		Order("created_at asc").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *PostgresRepository) ResolveJoinRequest(ctx context.Context, requestID, status string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&familydomain.JoinRequest{}).
		Where("id = ? AND status = ?", requestID, familydomain.RequestPending).
		Update("status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) DeleteJoinRequestsByFamily(ctx context.Context, familyID string) error {
	return r.db.WithContext(ctx).Where("family_id = ?", familyID).Delete(&familydomain.JoinRequest{}).Error
}
