package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"salestrack/dashboard"
	"salestrack/internal/bus"
	"salestrack/internal/bus/memorybus"
	"salestrack/internal/bus/rabbitmq"
	"salestrack/internal/bus/redisbus"
	"salestrack/internal/clock"
	"salestrack/internal/endpoint"
	"salestrack/internal/repository"
	"salestrack/internal/store"
	"salestrack/internal/store/memory"
	pgstore "salestrack/internal/store/postgres"
	"salestrack/internal/store/redisstore"
	"salestrack/queue"
	"salestrack/types/config"
	"salestrack/web"
)

// Container holds all application dependencies. It is the single source of
// truth for dependency injection and ensures connections and services are
// created once.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Storage connections (created once, shared by all stores)
	DB    *sql.DB
	Redis *redis.Client

	// Queue infrastructure
	StateStore store.StateStore
	Bus        bus.NotificationBus
	Deliverer  queue.Deliverer
	Queue      *queue.WriteQueue
	Runner     *queue.Runner

	// Scoring inputs and read side
	RecordRepository repository.MetricRecordRepository
	GoalRepository   repository.GoalRepository
	Dashboard        *dashboard.Service

	RouteHandler web.HttpRouteHandler
}

// NewContainer creates and wires all dependencies. Single entry point for DI;
// call it once per application lifecycle. Pass With* options to inject
// connections or fakes for testing.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...ContainerOption) (*Container, error) {
	opt := &containerConfig{}
	for _, o := range opts {
		o(opt)
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		DB:     opt.db,
		Redis:  opt.redis,
	}

	if err := c.initConnections(ctx); err != nil {
		return nil, err
	}
	if err := c.initStateStore(ctx, opt); err != nil {
		return nil, err
	}
	if err := c.initBus(opt); err != nil {
		return nil, err
	}
	if err := c.initRepositories(ctx, opt); err != nil {
		return nil, err
	}

	c.Deliverer = opt.deliverer
	if c.Deliverer == nil {
		c.Deliverer = endpoint.NewClient(endpoint.Config{
			Collection:         cfg.Collection,
			BasePathCandidates: cfg.BasePathCandidates,
			RequestTimeout:     cfg.RequestTimeout,
			WarmupRetries:      cfg.WarmupRetries,
			WarmupPause:        cfg.WarmupPause,
		}, logger.Named("endpoint"))
	}

	clk := opt.clock
	if clk == nil {
		clk = clock.Real()
	}

	c.Queue = queue.New(cfg, c.StateStore, c.Bus, c.Deliverer, clk, logger.Named("queue"))
	c.Runner = queue.NewRunner(c.Queue, cfg.TickInterval, logger.Named("runner"))
	c.Dashboard = dashboard.NewService(c.RecordRepository, c.GoalRepository, logger.Named("dashboard"))
	c.RouteHandler = web.NewRouteHandler(c.Queue, c.Dashboard, logger.Named("web"), cfg.DashboardPort)

	return c, nil
}

func (c *Container) initConnections(ctx context.Context) error {
	needsPostgres := c.Config.StorageDriver == config.Postgres
	needsRedis := c.Config.StorageDriver == config.Redis || c.Config.BusDriver == config.RedisBus

	if needsPostgres && c.DB == nil {
		db, err := sql.Open("postgres", c.Config.PostgresConfig.ConnectionUrl)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		c.DB = db
	}

	if needsRedis && c.Redis == nil {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     c.Config.RedisConfig.Address,
			Password: c.Config.RedisConfig.Password,
			DB:       c.Config.RedisConfig.DB,
		})
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
	}
	return nil
}

func (c *Container) initStateStore(ctx context.Context, opt *containerConfig) error {
	if opt.stateStore != nil {
		c.StateStore = opt.stateStore
		return nil
	}

	switch c.Config.StorageDriver {
	case config.Postgres:
		st := pgstore.NewStore(c.DB)
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
		c.StateStore = st
	case config.Redis:
		c.StateStore = redisstore.NewStore(c.Redis)
	case config.Memory:
		c.StateStore = memory.NewStore()
	default:
		return fmt.Errorf("unsupported storage driver: %v", c.Config.StorageDriver)
	}
	return nil
}

func (c *Container) initBus(opt *containerConfig) error {
	if opt.bus != nil {
		c.Bus = opt.bus
		return nil
	}

	switch c.Config.BusDriver {
	case config.RedisBus:
		c.Bus = redisbus.NewBus(c.Redis, c.Logger.Named("bus"))
	case config.RabbitMQBus:
		b, err := rabbitmq.NewBus(c.Config.RabbitMQConfig.URL, c.Logger.Named("bus"))
		if err != nil {
			return fmt.Errorf("init rabbitmq bus: %w", err)
		}
		c.Bus = b
	case config.MemoryBus:
		c.Bus = memorybus.NewBus()
	default:
		return fmt.Errorf("unsupported bus driver: %v", c.Config.BusDriver)
	}
	return nil
}

// initRepositories wires the scoring input stores. Only Postgres has a
// durable implementation; the memory and Redis storage drivers fall back to
// in-process repositories.
func (c *Container) initRepositories(ctx context.Context, opt *containerConfig) error {
	if opt.records != nil {
		c.RecordRepository = opt.records
	}
	if opt.goals != nil {
		c.GoalRepository = opt.goals
	}
	if c.RecordRepository != nil && c.GoalRepository != nil {
		return nil
	}

	if c.Config.StorageDriver == config.Postgres {
		if c.RecordRepository == nil {
			if err := repository.EnsureRecordSchema(ctx, c.DB); err != nil {
				return err
			}
			c.RecordRepository = repository.NewPostgresMetricRecordRepository(c.DB)
		}
		if c.GoalRepository == nil {
			if err := repository.EnsureGoalSchema(ctx, c.DB); err != nil {
				return err
			}
			c.GoalRepository = repository.NewPostgresGoalRepository(c.DB)
		}
		return nil
	}

	if c.RecordRepository == nil {
		c.RecordRepository = repository.NewMemoryMetricRecordRepository()
	}
	if c.GoalRepository == nil {
		c.GoalRepository = repository.NewMemoryGoalRepository()
	}
	return nil
}

// Close releases the connections the container opened.
func (c *Container) Close() error {
	var firstErr error
	if c.Bus != nil {
		if err := c.Bus.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.StateStore != nil {
		if err := c.StateStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
