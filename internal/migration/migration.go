package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	orderdomain "github.com/railzwaylabs/storefront/internal/order/domain"
	paymentdomain "github.com/railzwaylabs/storefront/internal/payment/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RunMigrations applies all embedded Postgres migrations under an advisory
// lock and returns the resulting schema version.
func RunMigrations(ctx context.Context, db *sql.DB) (uint, error) {
	if db == nil {
		return 0, errors.New("migration database handle is required")
	}

	unlock, err := acquireAdvisoryLock(ctx, db)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = unlock(context.Background())
	}()

	latestVersion, err := LatestMigrationVersion()
	if err != nil {
		return 0, err
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return 0, fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return 0, fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return 0, fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return 0, fmt.Errorf("create migrator: %w", err)
	}

	if _, err := ensureNotDirty(migrator); err != nil {
		return 0, err
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply migrations: %w", upErr)
	}

	currentVersion, err := ensureNotDirty(migrator)
	if err != nil {
		return 0, err
	}
	if currentVersion != latestVersion {
		return 0, fmt.Errorf("schema version mismatch after migrate: got %d want %d", currentVersion, latestVersion)
	}
	return currentVersion, nil
}

// AutoMigrate creates the schema from the gorm models. Used for sqlite and
// mysql, where the embedded SQL is not applied.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&orderdomain.Event{},
		&paymentdomain.WebhookEvent{},
	)
}

// Apply migrates db using the strategy for driver.
func Apply(ctx context.Context, driver string, db *gorm.DB, log *zap.Logger) error {
	log = log.Named("migration")

	if driver != "postgres" {
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("schema auto-migrated", zap.String("driver", driver))
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	version, err := RunMigrations(ctx, sqlDB)
	if err != nil {
		return err
	}

	checksum, err := MigrationsChecksum()
	if err != nil {
		return err
	}
	log.Info("schema migrated", zap.Uint("version", version), zap.String("checksum", checksum))
	return nil
}

func ensureNotDirty(migrator *migrate.Migrate) (uint, error) {
	if migrator == nil {
		return 0, errors.New("migrator is required")
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, nil
		}
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return 0, fmt.Errorf("database migrations are dirty at version %d", version)
	}
	return version, nil
}
