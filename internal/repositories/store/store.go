package store

import (
	"context"
	"fmt"

	"github.com/ArowuTest/topup-callback/internal/config"
	"github.com/ArowuTest/topup-callback/internal/repositories"
	"github.com/ArowuTest/topup-callback/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/topup-callback/internal/repositories/mongodb"
	"github.com/ArowuTest/topup-callback/internal/repositories/sqlstore"
	"github.com/ArowuTest/topup-callback/pkg/mongodb"
	"go.uber.org/zap"
)

// Store bundles the repositories of one backend
type Store struct {
	Topups        repositories.TopupRequestRepository
	Notifications repositories.NotificationRepository
	Driver        string

	closeFn func(ctx context.Context) error
}

// Close releases the backend connection
func (s *Store) Close(ctx context.Context) error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn(ctx)
}

// Open builds the repositories for cfg.Store.Driver
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	upsert := cfg.Store.UpsertUnknown

	switch cfg.Store.Driver {
	case config.StoreMongoDB:
		client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDB.Database)
		if err := client.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		log.Info("Connected to MongoDB", zap.String("database", cfg.MongoDB.Database))
		return &Store{
			Topups:        mongorepo.NewTopupRepository(db, upsert),
			Notifications: mongorepo.NewNotificationRepository(db),
			Driver:        config.StoreMongoDB,
			closeFn:       client.Disconnect,
		}, nil

	case config.StoreSQLite:
		db, err := sqlstore.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLite.Path, err)
		}
		log.Info("Opened SQLite store", zap.String("path", cfg.SQLite.Path))
		return &Store{
			Topups:        sqlstore.NewTopupRepository(db, upsert),
			Notifications: sqlstore.NewNotificationRepository(db),
			Driver:        config.StoreSQLite,
			closeFn: func(context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		}, nil

	case config.StoreMemory:
		log.Warn("Using in-memory store; records are lost on restart")
		return &Store{
			Topups:        memory.NewTopupRepository(upsert),
			Notifications: memory.NewNotificationRepository(),
			Driver:        config.StoreMemory,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
