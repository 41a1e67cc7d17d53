package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"anoa.com/donorhub/internal/entity"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Profile{},
		&entity.TeamMember{},
		&entity.Notification{},
		&entity.XPLog{},
		&entity.UserStats{},
		&entity.Campaign{},
		&entity.Pledge{},
		&entity.Game{},
		&entity.GamePlayer{},
		&entity.GameMove{},
	)
}

func SeedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleAdmin, Description: "Platform administrator"},
		{Name: entity.RolePlatformTeam, Description: "Platform team member"},
		{Name: entity.RoleDonor, Description: "Donor"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

func SeedAdminUser(db *gorm.DB, email, password string, log *zap.Logger) error {
	var adminRole entity.Role
	if err := db.Where("name = ?", entity.RoleAdmin).First(&adminRole).Error; err != nil {
		return fmt.Errorf("admin role missing, seed roles first: %w", err)
	}

	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Info("admin user already exists, skipping seed", zap.String("email", email))
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	bio := "System administrator"
	return db.Transaction(func(tx *gorm.DB) error {
		adminUser := entity.User{
			Username:     "admin",
			Email:        email,
			PasswordHash: string(hashed),
			RoleID:       &adminRole.ID,
		}
		if err := tx.Omit("Profile").Create(&adminUser).Error; err != nil {
			return err
		}

		adminProfile := entity.Profile{
			UserID:   adminUser.ID,
			FullName: "Administrator",
			Bio:      &bio,
		}
		if err := tx.Create(&adminProfile).Error; err != nil {
			return err
		}

		log.Info("admin user seeded", zap.String("email", email))
		return nil
	})
}

// SeedCampaigns adds sample campaigns to an empty database.
func SeedCampaigns(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&entity.Campaign{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var admin entity.User
	err := db.Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ?", entity.RoleAdmin).
		Order("users.created_at").
		First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no admin to own sample campaigns")
		}
		return err
	}

	endsAt := time.Now().UTC().AddDate(0, 3, 0)
	campaigns := []entity.Campaign{
		{
			Name:        "Clean Water Wells",
			Slug:        "clean-water-wells",
			Description: "Drilling and maintaining wells for rural villages.",
			GoalCents:   5_000_000,
			Currency:    "USD",
			IsActive:    true,
			EndsAt:      &endsAt,
			CreatedByID: admin.ID,
		},
		{
			Name:        "Library Starship",
			Slug:        "library-starship",
			Description: "A mobile library bringing books to remote schools.",
			GoalCents:   1_500_000,
			Currency:    "USD",
			IsActive:    true,
			CreatedByID: admin.ID,
		},
	}

	if err := db.Create(&campaigns).Error; err != nil {
		return err
	}
	log.Info("sample campaigns seeded", zap.Int("count", len(campaigns)))
	return nil
}
