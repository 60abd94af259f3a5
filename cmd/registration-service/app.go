package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"registration/internal/broker"
	"registration/internal/config"
	"registration/internal/constants"
	"registration/internal/eventbus"
	"registration/internal/logger"
	"registration/internal/queue"
	"registration/internal/registration"
	"registration/pkg/bootstrap"
	"registration/pkg/health"
	"registration/pkg/metrics"
	"registration/pkg/ratelimit"
	"registration/pkg/tracing"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	dbConnector *bootstrap.DatabaseConnector

	mongoClient *mongo.Client
	redisClient *redis.Client

	producer     broker.Producer
	provisioning *queue.InMemoryQueue
	bus          *eventbus.Bus
	orchestrator *registration.Orchestrator

	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		cfg:         cfg,
		logger:      log,
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	a.registerMetrics()

	tp, err := tracing.Init(a.cfg.Tracing, "registration-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	if err := a.initBroker(); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	a.initEventDistribution()
	a.initWorkflow()

	if err := a.initHTTPServer(); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		return err
	}
	a.mongoClient = mongoClient

	redisClient, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return err
	}
	a.redisClient = redisClient

	return nil
}

func (a *App) registerMetrics() {
	metrics.RegisterWorkflowMetrics()
	metrics.RegisterRouterMetrics()
	metrics.RegisterQueueMetrics()
	if a.cfg.Broker.Type == "kafka" {
		metrics.RegisterBrokerMetrics()
	}
	if a.cfg.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}
	if a.cfg.RateLimit.Enabled {
		metrics.RegisterRateLimitMetrics()
	}
}

func (a *App) initBroker() error {
	if a.cfg.Broker.Type == "" || a.cfg.Broker.Type == "none" {
		a.logger.Info("No external broker configured, event mirroring disabled")
		return nil
	}

	producer, err := broker.NewProducer(a.cfg.Broker, a.logger)
	if err != nil {
		return err
	}
	a.producer = producer
	return nil
}

func (a *App) initEventDistribution() {
	a.provisioning = queue.New(constants.ProvisioningQueue, queue.Config{
		MaxReceiveCount:   a.cfg.Queue.MaxReceiveCount,
		VisibilityTimeout: a.cfg.Queue.VisibilityTimeout,
	}, a.logger)

	router := eventbus.NewRouter(a.logger)
	router.RegisterQueue(constants.ProvisioningQueue, a.provisioning)
	for _, rule := range eventbus.RulesFromConfig(a.cfg.Routing) {
		router.Subscribe(rule)
	}

	var opts []eventbus.BusOption
	if a.producer != nil && a.cfg.Broker.Kafka.MirrorTopic != "" {
		opts = append(opts, eventbus.WithMirror(a.producer, a.cfg.Broker.Kafka.MirrorTopic))
	}

	a.bus = eventbus.NewBus(router, a.logger, opts...)
}

func (a *App) initWorkflow() {
	var store registration.RecordStore = registration.NewMongoRecordStore(a.mongoClient, a.cfg.Database.MongoDB.Database)
	var archive registration.ObjectArchive = registration.NewRedisObjectArchive(a.redisClient, a.cfg.Database.Redis.TTLSeconds)

	if a.cfg.CircuitBreaker.Enabled {
		store = registration.NewCircuitBreakerRecordStore(store, a.cfg.CircuitBreaker)
		archive = registration.NewCircuitBreakerObjectArchive(archive, a.cfg.CircuitBreaker)
	}

	a.orchestrator = registration.NewOrchestrator(store, archive, a.bus, a.cfg.Workflow, a.logger)
}

func (a *App) initHTTPServer() error {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	if a.cfg.RateLimit.Enabled {
		rlCfg := ratelimit.DefaultConfig()
		if a.cfg.RateLimit.RPS > 0 {
			rlCfg.RPS = a.cfg.RateLimit.RPS
		}
		if a.cfg.RateLimit.Burst > 0 {
			rlCfg.Burst = a.cfg.RateLimit.Burst
		}
		engine.Use(ratelimit.Middleware(rlCfg))
	}

	handler := registration.NewHandler(a.orchestrator, a.cfg.Workflow.Redrive, a.logger)
	handler.RegisterRoutes(engine)

	healthRegistry := health.NewCheckerRegistry()
	if a.mongoClient != nil {
		healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	}
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}

	engine.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  a.cfg.Server.ReadTimeoutSeconds,
		WriteTimeout: a.cfg.Server.WriteTimeoutSeconds,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfowCtx(ctx, "HTTP server starting", "port", a.cfg.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if a.producer != nil && a.cfg.Broker.Kafka.QueueTopic != "" {
		g.Go(func() error {
			return a.runQueueDispatcher(gCtx)
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// runQueueDispatcher bridges the provisioning queue to the external Kafka
// topic. Delivery failures are nacked; the queue dead-letters a message
// after it exhausts its receive budget.
func (a *App) runQueueDispatcher(ctx context.Context) error {
	topic := a.cfg.Broker.Kafka.QueueTopic
	a.logger.InfowCtx(ctx, "Queue dispatcher starting",
		"queue", a.provisioning.Name(),
		"topic", topic,
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		msg, err := a.provisioning.Dequeue(ctx)
		if err != nil {
			return nil
		}

		if msg == nil {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}

		if err := a.producer.Publish(ctx, topic, msg.Event); err != nil {
			a.logger.ErrorwCtx(ctx, "Failed to forward queued event",
				"message_id", msg.ID,
				"receive_count", msg.ReceiveCount,
				"error", err,
			)
			_ = a.provisioning.Nack(ctx, msg.ID)
			continue
		}

		_ = a.provisioning.Ack(ctx, msg.ID)
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("producer close error: %w", err))
		}
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown error: %w", err))
		}
	}

	errs = append(errs, a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.mongoClient)...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.Info("Application exited successfully")
	return nil
}
