package main

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/suportesmart/storefront/config"
	"github.com/suportesmart/storefront/models"
)

const databaseURLFlag = "database-url"

func main() {
	databaseURL := pflag.StringP(databaseURLFlag, "d", "", "PostgreSQL URL, defaults to DATABASE_URL")
	pflag.Parse()

	logger := config.NewLogger("info")
	if *databaseURL == "" {
		cfg, err := config.Load(logger)
		if err != nil {
			logger.WithError(err).Errorf("--%s flag or DATABASE_URL: required", databaseURLFlag)
			os.Exit(2)
		}
		*databaseURL = cfg.DatabaseURL
	}

	if err := models.Migrate(*databaseURL, logger); err != nil {
		logger.WithError(err).Error("Failed to migrate")
		os.Exit(2)
	}
}
