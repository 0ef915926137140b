package models

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"

	"github.com/suportesmart/storefront/migrations"
)

type migrationLogger struct {
	log logrus.FieldLogger
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.log.Infof(format, v...)
}

func (l migrationLogger) Verbose() bool {
	return false
}

// Migrate applies every pending schema migration embedded in the binary.
func Migrate(dsn string, log logrus.FieldLogger) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()
	m.Log = migrationLogger{log: log}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to apply")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Info("migrations applied")
	return nil
}
