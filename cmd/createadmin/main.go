// Command createadmin creates the first back office account from
// ADMIN_USERNAME and ADMIN_PASSWORD when it does not exist yet.
package main

import (
	"errors"
	"os"

	"github.com/kelseyhightower/envconfig"

	"github.com/suportesmart/storefront/app/users"
	"github.com/suportesmart/storefront/config"
	"github.com/suportesmart/storefront/models"
)

type adminConfig struct {
	Username string `envconfig:"ADMIN_USERNAME" required:"true"`
	Password string `envconfig:"ADMIN_PASSWORD" required:"true"`
}

func main() {
	logger := config.NewLogger("info")
	cfg, err := config.Load(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	var admin adminConfig
	if err := envconfig.Process("", &admin); err != nil {
		logger.WithError(err).Fatal("ADMIN_USERNAME and ADMIN_PASSWORD are required")
	}

	db, err := models.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	repo := models.NewUsersRepository(db)

	if _, err := repo.GetByUsername(admin.Username); err == nil {
		logger.WithField("username", admin.Username).Info("Admin user already exists")
		return
	} else if !errors.Is(err, models.ErrUserNotFound) {
		logger.WithError(err).Fatal("Failed to look up admin user")
	}

	if _, err := users.NewService(repo, logger).Create(admin.Username, admin.Password); err != nil {
		logger.WithError(err).Error("Failed to create admin user")
		os.Exit(1)
	}
}
