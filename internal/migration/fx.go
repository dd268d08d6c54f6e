package migration

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fintro/receivables/internal/config"
	"github.com/fintro/receivables/internal/ratelimit"
	"github.com/fintro/receivables/internal/seed"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, lock *ratelimit.BootstrapLock, log *zap.Logger) error {
		ctx := context.Background()

		token, acquired, err := lock.Acquire(ctx)
		if err != nil {
			return err
		}
		if !acquired {
			log.Info("ledger bootstrap held by another replica, skipping")
			return nil
		}
		defer func() {
			if err := lock.Release(ctx, token); err != nil {
				log.Warn("bootstrap lock release failed", zap.Error(err))
			}
		}()

		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
			log.Info("migrations applied")
		} else {
			// sqlite deployments build their schema through AutoMigrate in
			// tests and local tooling; versioned migrations target postgres.
			log.Debug("skipping migrations", zap.String("db_type", cfg.DBType))
		}

		if cfg.SeedDemoLedger {
			if err := seed.EnsureDemoLedger(conn); err != nil {
				return err
			}
			log.Info("demo ledger seeded")
		}
		return nil
	}),
)
