package model

import (
	"context"
	"errors"
	"strings"

	"wardrobe/internal/auth"
	"wardrobe/internal/config"
	"wardrobe/internal/entity/db"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SeedAdminUser 在配置了 ADMIN_EMAIL/ADMIN_PASSWORD 时确保管理员账户存在。
func SeedAdminUser(ctx context.Context, repo Repository, cfg config.Config) error {
	if repo == nil {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || strings.TrimSpace(cfg.AdminPassword) == "" {
		return nil
	}

	existing, err := repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		logrus.WithField("uid", existing.UID).Debug("admin user already exists")
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	user := &db.User{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "admin",
		Role:         db.UserRoleAdmin,
		IsActive:     true,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"uid":   user.UID,
		"email": user.Email,
	}).Info("admin user created")
	return nil
}
