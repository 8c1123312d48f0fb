package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/xaenox/club-assistant/internal/content"
	"github.com/xaenox/club-assistant/internal/escalation"
	"github.com/xaenox/club-assistant/internal/hours"
	"github.com/xaenox/club-assistant/internal/payment"
	"github.com/xaenox/club-assistant/internal/router"
	"github.com/xaenox/club-assistant/internal/storage"
	"github.com/xaenox/club-assistant/pkg/config"
	"go.uber.org/zap"
)

func loadTable(cfg *config.Config) (*content.Table, error) {
	c := cfg.Competitions
	table, err := content.Build(content.Settings{
		OrgName:            cfg.Org.Name,
		PixKey:             cfg.Payment.PixKey,
		PreRegistrationURL: cfg.Payment.PreRegistrationURL,
		Competitions: content.Competitions{
			Internal:        c.Internal,
			Calibre:         c.Calibre,
			CBTT:            c.CBTT,
			W2C:             c.W2C,
			Linade:          c.Linade,
			StateFederation: c.StateFederation,
		},
	})
	if err != nil {
		return nil, err
	}

	if cfg.Content.File != "" {
		if err := content.LoadFile(cfg.Content.File, table); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func loadGate(cfg *config.Config) (*hours.Gate, error) {
	schedule, err := hours.ParseSchedule(cfg.Hours.Days)
	if err != nil {
		return nil, err
	}
	return hours.NewGate(schedule, cfg.Hours.Timezone)
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.CounterStore, error) {
	storeType := storage.StoreType(cfg.Store.Type)
	opts := []storage.StoreOption{storage.WithTTL(cfg.Escalation.CounterTTL)}

	switch storeType {
	case storage.StoreTypeRedis:
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		client := redis.NewClient(redisOpts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		opts = append(opts, storage.WithRedisClient(client))
	case storage.StoreTypePostgres:
		db, err := storage.OpenPostgres(ctx, storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, storage.WithDB(db))
	}

	logger.Info("Using counter store",
		zap.String("type", string(storeType)),
		zap.Duration("ttl", cfg.Escalation.CounterTTL))
	return storage.NewCounterStore(storeType, opts...)
}

// buildRouter wires every component from cfg. The returned store must be
// closed by the caller.
func buildRouter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*router.Router, storage.CounterStore, error) {
	table, err := loadTable(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load content: %w", err)
	}

	gate, err := loadGate(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load business hours: %w", err)
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	machine := escalation.New(store, cfg.Escalation.Triggers, cfg.Escalation.Threshold)

	var links payment.LinkGenerator
	if cfg.Payment.Enabled {
		links = payment.NewClient(payment.Config{
			APIURL:      cfg.Payment.APIURL,
			Handle:      cfg.Payment.Handle,
			OrderPrefix: cfg.Payment.OrderPrefix,
			OrgName:     cfg.Org.Name,
			Timeout:     cfg.Payment.Timeout,
		})
	}
	augmenter := payment.NewAugmenter(links, payment.AugmenterConfig{
		Enabled:            cfg.Payment.Enabled,
		PixKey:             cfg.Payment.PixKey,
		PreRegistrationURL: cfg.Payment.PreRegistrationURL,
		Timeout:            cfg.Payment.Timeout,
	}, logger.Named("payment"))

	r := router.New(table, machine, augmenter, gate, router.Config{
		NotUnderstood: cfg.Escalation.NotUnderstoodMessage,
		OutOfHours:    cfg.Hours.OutOfHoursMessage,
	}, logger.Named("router"))

	return r, store, nil
}
