package app

import (
	"context"

	"github.com/RezaEskandarii/reportfire/client"
	"github.com/RezaEskandarii/reportfire/internal/constants"
	"github.com/RezaEskandarii/reportfire/internal/content"
	"github.com/RezaEskandarii/reportfire/internal/db"
	"github.com/RezaEskandarii/reportfire/internal/history"
	"github.com/RezaEskandarii/reportfire/internal/lock"
	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/RezaEskandarii/reportfire/internal/message_broaker"
	"github.com/RezaEskandarii/reportfire/internal/metrics"
	"github.com/RezaEskandarii/reportfire/internal/notify"
	"github.com/RezaEskandarii/reportfire/internal/runner"
	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/RezaEskandarii/reportfire/internal/store/postgres"
	"github.com/RezaEskandarii/reportfire/internal/trigger"
	"github.com/RezaEskandarii/reportfire/types/config"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies. It is the single source of truth
// for dependency injection and ensures connections and services are created once.
type Container struct {
	Config *config.ReportfireConfig
	Logger logger.Logger

	// Storage connections (created once, shared by all stores)
	DB    *sqlx.DB
	Redis *redis.Client

	Schedules store.ScheduleStore
	History   store.HistoryStore
	Owners    store.OwnerStore
	Artifacts *postgres.PostgresArtifactStore

	// Infrastructure
	LockManager   lock.DistributedLockManager
	MessageBroker message_broaker.MessageBroker
	Metrics       *metrics.Metrics
	Migrator      *db.Migrator

	Notifier   notify.Notifier
	Recorder   *history.Recorder
	Janitor    *history.Janitor
	Runner     *runner.Runner
	Dispatcher *client.Dispatcher
	Manager    *client.ScheduleManager
}

// NewContainer creates and wires all dependencies. Call this once per application lifecycle.
// Pass WithDB, WithRedis, WithMessageBroker or WithLogger to inject dependencies for testing.
func NewContainer(ctx context.Context, cfg *config.ReportfireConfig, opts ...ContainerOption) (*Container, error) {
	opt := &containerConfig{}
	for _, o := range opts {
		o(opt)
	}

	c := &Container{Config: cfg, Metrics: metrics.New()}

	if err := c.initLogger(opt); err != nil {
		return nil, err
	}
	if err := c.initStorage(ctx, opt); err != nil {
		return nil, err
	}
	if err := c.initNotifier(opt); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Schedules = postgres.NewPostgresScheduleStore(c.DB)
	c.History = postgres.NewPostgresHistoryStore(c.DB)
	c.Owners = postgres.NewPostgresOwnerStore(c.DB)
	c.Artifacts = postgres.NewPostgresArtifactStore(c.DB)
	c.LockManager = createDistributedLockManager(cfg, c.DB, c.Redis)
	c.Migrator = db.NewMigrator(cfg.PostgresConfig.ConnectionUrl, c.LockManager, c.Logger.With(logger.String("component", "migrator")))

	c.Recorder = history.NewRecorder(c.History, c.Logger.With(logger.String("component", "history")))
	c.Janitor = history.NewJanitor(c.History, c.LockManager, cfg.HistoryRetention, c.Logger.With(logger.String("component", "janitor")))

	c.Runner = runner.New(
		c.Owners,
		c.Artifacts,
		content.NewTemplateCreator(c.Artifacts),
		c.Notifier,
		c.Schedules,
		c.Recorder,
		c.Logger.With(logger.String("component", "runner")),
		runner.WithTimeout(cfg.ExecutionTimeout),
	)

	dispatcherOpts := []client.DispatcherOption{client.WithDispatchMetrics(c.Metrics)}
	if cfg.ExclusiveTicks {
		dispatcherOpts = append(dispatcherOpts, client.WithTickLock(c.LockManager))
	}
	c.Dispatcher = client.NewDispatcher(c.Schedules, c.Runner, cfg, c.Logger.With(logger.String("component", "dispatcher")), dispatcherOpts...)
	c.Manager = client.NewScheduleManager(c.Schedules, c.History, c.Logger.With(logger.String("component", "manager")),
		client.WithManagerClaimStaleAfter(c.Config.ClaimStaleAfter))

	return c, nil
}

// NewTrigger returns the dispatcher trigger: a cron trigger when PollSpec is set, a ticker otherwise.
func (c *Container) NewTrigger() (trigger.Trigger, error) {
	if c.Config.PollSpec != "" {
		return trigger.NewCron(c.Config.PollSpec)
	}
	return trigger.NewTicker(c.Config.PollInterval)
}

// Close releases connections owned by the container.
func (c *Container) Close() error {
	var err error
	if c.LockManager != nil {
		for _, lockID := range constants.Locks {
			if rerr := c.LockManager.Release(context.Background(), lockID); rerr != nil && !errors.Is(rerr, lock.ErrNotHeld) {
				err = errors.CombineErrors(err, rerr)
			}
		}
	}
	if c.MessageBroker != nil {
		err = errors.CombineErrors(err, c.MessageBroker.Close())
	}
	if c.Redis != nil {
		err = errors.CombineErrors(err, c.Redis.Close())
	}
	if c.DB != nil {
		err = errors.CombineErrors(err, c.DB.Close())
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
	return err
}

func (c *Container) initLogger(opt *containerConfig) error {
	if opt.logger != nil {
		c.Logger = opt.logger
		return nil
	}
	log, err := logger.New(c.Config.LoggerConfig())
	if err != nil {
		return errors.Wrap(err, "init logger")
	}
	c.Logger = log.With(logger.String("instance", c.Config.Instance))
	return nil
}

// initStorage opens database connections based on config unless they were injected.
func (c *Container) initStorage(ctx context.Context, opt *containerConfig) error {
	if opt.db != nil {
		c.DB = opt.db
	} else {
		conn, err := postgres.Open(c.Config.PostgresConfig.ConnectionUrl)
		if err != nil {
			return errors.Wrap(err, "init postgres")
		}
		c.DB = conn
	}

	if c.Config.LockDriver() != config.RedisLock {
		return nil
	}
	if opt.redis != nil {
		c.Redis = opt.redis
		return nil
	}
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.RedisConfig.Address,
		Password: c.Config.RedisConfig.Password,
		DB:       c.Config.RedisConfig.DB,
	})
	if err := c.Redis.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return errors.Wrap(err, "init redis")
	}
	return nil
}

func (c *Container) initNotifier(opt *containerConfig) error {
	log := c.Logger.With(logger.String("component", "notifier"))

	switch c.Config.NotifierDriver() {
	case config.RabbitMQ:
		broker := opt.broker
		if broker == nil {
			rc := c.Config.RabbitMQConfig
			mq, err := message_broaker.NewRabbitMQ(rc.URL, rc.Exchange, rc.Queue, rc.RoutingKey, rc.ContentType)
			if err != nil {
				return errors.Wrap(err, "init rabbitmq")
			}
			broker = mq
		}
		c.MessageBroker = broker
		c.Notifier = notify.NewBrokerNotifier(broker, c.Config.NotifyRatePerSec, log)
	default:
		c.Notifier = notify.NewLogNotifier(log)
	}
	return nil
}

func createDistributedLockManager(cfg *config.ReportfireConfig, conn *sqlx.DB, redisClient *redis.Client) lock.DistributedLockManager {
	if cfg.LockDriver() == config.RedisLock && redisClient != nil {
		return lock.NewRedisDistributedLockManager(redisClient, cfg.ClaimStaleAfter)
	}
	return lock.NewPostgresDistributedLockManager(conn.DB)
}
