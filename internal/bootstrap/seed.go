package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"anoa.com/gamingcommunity/internal/entity"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Game{},
		&entity.Community{},
		&entity.CommunityMember{},
		&entity.Blog{},
		&entity.BlogComment{},
	)
}

// SeedAdminUser creates the admin account once. An existing account with the
// same email is promoted instead. The new account is named "admin" unless a
// regular user already holds that name.
func SeedAdminUser(db *gorm.DB, email, password string, log *zap.Logger) error {
	var existing entity.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.IsAdmin {
			log.Info("admin user already exists, skipping seed", zap.String("email", email))
			return nil
		}
		return db.Model(&existing).Update("is_admin", true).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	username, err := adminUsername(db, email)
	if err != nil {
		return err
	}

	admin := entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		IsAdmin:      true,
		Bio:          "System Administrator",
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Info("admin user seeded", zap.String("email", email), zap.String("username", username))
	return nil
}

// adminUsername tries "admin", then the email's local part, then a suffixed
// name that cannot realistically collide.
func adminUsername(db *gorm.DB, email string) (string, error) {
	candidates := []string{"admin"}
	if local, _, ok := strings.Cut(email, "@"); ok {
		local = strings.TrimSpace(local)
		if n := utf8.RuneCountInString(local); n >= 3 && n <= 50 {
			candidates = append(candidates, local)
		}
	}

	for _, name := range candidates {
		var n int64
		if err := db.Model(&entity.User{}).Where("username = ?", name).Count(&n).Error; err != nil {
			return "", fmt.Errorf("check username %q: %w", name, err)
		}
		if n == 0 {
			return name, nil
		}
	}
	return "admin-" + uuid.NewString()[:8], nil
}
