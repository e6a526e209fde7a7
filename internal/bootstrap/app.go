package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"apicatalog/internal/app"
	"apicatalog/internal/cache"
	"apicatalog/internal/config"
	"apicatalog/internal/logging"
	"apicatalog/internal/platform/database"
	rabbitmqClient "apicatalog/internal/platform/rabbitmq"
	redisClient "apicatalog/internal/platform/redis"
	"apicatalog/internal/repository"
	"apicatalog/internal/worker"
)

// App owns every long-lived resource and the services built on top of them.
// Redis and RabbitMQ are optional: nil when not configured.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	Auth    *app.AuthService
	Catalog *app.CatalogService
	Likes   *app.LikeService
	Users   *app.UserService

	ViewWorker *worker.ViewWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	db, err := database.New(ctx, cfg.Database.Driver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, DB: db}

	a.Redis, err = redisClient.New(ctx, cfg.Redis)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Wire()

	if a.MQConn != nil {
		a.ViewWorker = worker.NewViewWorker(a.MQConn, a.Catalog, cfg.RabbitMQ.ViewQueue)
		if err := a.ViewWorker.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("start view worker failed: %w", err)
		}
	}

	a.StartedAt = time.Now()
	logging.Info().
		Str("driver", cfg.Database.Driver).
		Bool("redis", a.Redis != nil).
		Bool("rabbitmq", a.MQConn != nil).
		Msg("application bootstrapped")
	return a, nil
}

// Wire builds the services from whatever resources are set on a. Tests call
// it directly after setting Config and DB.
func (a *App) Wire() {
	userRepo := repository.NewUserRepository(a.DB)
	apiRepo := repository.NewAPIRepository(a.DB)
	likeRepo := repository.NewLikeRepository(a.DB)
	followRepo := repository.NewFollowRepository(a.DB)

	tokens := app.NewTokenIssuer(
		likeRepo,
		a.Config.Auth.JWTSecret,
		time.Duration(a.Config.Auth.JWTExpireMinute)*time.Minute,
	)

	var views app.ViewRecorder
	if a.MQConn != nil {
		views = rabbitmqClient.NewViewPublisher(a.MQConn, a.Config.RabbitMQ.ViewQueue)
	}
	var names app.NameCache
	if a.Redis != nil {
		names = cache.NewNameCache(a.Redis, time.Duration(a.Config.Redis.NameTTLSeconds)*time.Second)
	}

	a.Auth = app.NewAuthService(userRepo, tokens)
	a.Catalog = app.NewCatalogService(apiRepo, userRepo, views)
	a.Likes = app.NewLikeService(userRepo, apiRepo, likeRepo, tokens)
	a.Users = app.NewUserService(userRepo, followRepo, names)
}

func (a *App) Close() error {
	var errs []error
	if a.ViewWorker != nil {
		a.ViewWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rabbitmq: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
