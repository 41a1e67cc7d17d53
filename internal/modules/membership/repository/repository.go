package repository

import (
	"context"

	"anoa.com/donorhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TeamRepository interface {
	Add(ctx context.Context, member *entity.TeamMember) error
	Remove(ctx context.Context, userID uuid.UUID) (bool, error)
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
	List(ctx context.Context) ([]entity.TeamMember, error)
	// RoleName returns "" when the user has no role.
	RoleName(ctx context.Context, userID uuid.UUID) (string, error)
}

type teamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) Add(ctx context.Context, member *entity.TeamMember) error {
	return r.db.WithContext(ctx).Omit("User").Create(member).Error
}

func (r *teamRepository) Remove(ctx context.Context, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&entity.TeamMember{}, "user_id = ?", userID)
	return res.RowsAffected > 0, res.Error
}

func (r *teamRepository) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.TeamMember{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

func (r *teamRepository) List(ctx context.Context) ([]entity.TeamMember, error) {
	var members []entity.TeamMember
	err := r.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "avatar_url", "role_id")
		}).
		Order("created_at asc").
		Find(&members).Error
	return members, err
}

func (r *teamRepository) RoleName(ctx context.Context, userID uuid.UUID) (string, error) {
	var row struct {
		Name *string
	}
	err := r.db.WithContext(ctx).
		Table("users").
		Select("roles.name AS name").
		Joins("LEFT JOIN roles ON roles.id = users.role_id").
		Where("users.id = ?", userID).
		Limit(1).
		Scan(&row).Error
	if err != nil || row.Name == nil {
		return "", err
	}
	return *row.Name, nil
}
