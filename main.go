package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/config"
	conversationrepo "github.com/Ramsey-B/clover/internal/repositories/conversation"
	interactionrepo "github.com/Ramsey-B/clover/internal/repositories/interaction"
	listingrepo "github.com/Ramsey-B/clover/internal/repositories/listing"
	messagerepo "github.com/Ramsey-B/clover/internal/repositories/message"
	userrepo "github.com/Ramsey-B/clover/internal/repositories/user"
	"github.com/Ramsey-B/clover/pkg/cache"
	"github.com/Ramsey-B/clover/pkg/conversations"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/interactions"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/listings"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/notify"
	"github.com/Ramsey-B/clover/pkg/redis"
	conversationroutes "github.com/Ramsey-B/clover/pkg/routes/conversations"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	interactionroutes "github.com/Ramsey-B/clover/pkg/routes/interactions"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const version = "1.0.0"

// dependency adapts plain start/stop funcs to the startup graph.
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string { return d.name }

func (d *dependency) DependsOn() []string { return d.dependsOn }

func (d *dependency) Start(ctx context.Context) error {
	if d.start == nil {
		return nil
	}
	return d.start(ctx)
}
func (d *dependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}

func newLogger(cfg config.Config) (ectologger.Logger, func()) {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}

	sink := zapLogger.Sugar()
	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		data, err := json.Marshal(msg)
		if err != nil {
			sink.Errorw("failed to encode log message", "error", err)
			return
		}
		sink.Info(string(data))
	})

	return logger, func() { _ = zapLogger.Sync() }
}

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger, flushLogs := newLogger(cfg)
	defer flushLogs()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.TracingEnabled {
		shutdown, err := tracing.NewProvider(ctx, tracing.ProviderConfig{
			ServiceName:  cfg.AppName,
			OTLPEndpoint: cfg.TracingOTLPEndpoint,
			Insecure:     true,
			Timeout:      10 * time.Second,
		})
		if err != nil {
			logger.WithError(err).Error("Failed to initialize tracing, continuing without it")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				_ = shutdown(shutdownCtx)
			}()
		}
	}

	var db database.DB
	var redisClient *redis.Client
	var producer *kafka.Producer
	var consumer *kafka.Consumer

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	healthChecker := health.NewChecker(nil, nil, version)

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)

	boot.AddDependency(&dependency{
		name: "postgres",
		start: func(ctx context.Context) error {
			var err error
			db, err = database.Connect(database.ConnectConfig{
				Host:            cfg.DatabaseHost,
				Port:            cfg.DatabasePort,
				UserName:        cfg.DatabaseUserName,
				Password:        cfg.DatabasePassword,
				DatabaseName:    cfg.DatabaseName,
				SSLMode:         cfg.DatabaseSSLMode,
				MaxOpenConns:    cfg.DatabaseMaxOpenConns,
				MaxIdleConns:    cfg.DatabaseMaxIdleConns,
				ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
			}, logger)
			return err
		},
		stop: func(ctx context.Context) error {
			if db == nil {
				return nil
			}
			return db.Close()
		},
	})

	boot.AddDependency(&dependency{
		name:      "migrations",
		dependsOn: []string{"postgres"},
		start: func(ctx context.Context) error {
			migrations := database.NewMigrationService(logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             uint(cfg.DatabaseMigrationVersion),
				Force:               cfg.DatabaseMigrationForce,
				AutoRollback:        cfg.DatabaseMigrationAutoRollback,
			})
			return migrations.MigrateDB(cfg.DatabaseName, db)
		},
	})

	boot.AddDependency(&dependency{
		name: "redis",
		start: func(ctx context.Context) error {
			var err error
			redisClient, err = redis.NewClient(redis.Config{
				Host:     cfg.RedisHost,
				Port:     cfg.RedisPort,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			}, logger)
			return err
		},
		stop: func(ctx context.Context) error {
			if redisClient == nil {
				return nil
			}
			return redisClient.Close()
		},
	})

	boot.AddDependency(&dependency{
		name: "kafka-producer",
		start: func(ctx context.Context) error {
			producer = kafka.NewProducer(kafka.ProducerConfig{
				Brokers:      cfg.KafkaBrokers,
				Topic:        cfg.KafkaOutputTopic,
				BatchSize:    cfg.KafkaBatchSize,
				BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
				RequiredAcks: cfg.KafkaRequiredAcks,
				Compression:  cfg.KafkaCompression,
			}, logger)
			return nil
		},
		stop: func(ctx context.Context) error {
			if producer == nil {
				return nil
			}
			return producer.Close()
		},
	})

	boot.AddDependency(&dependency{
		name:      "services",
		dependsOn: []string{"postgres", "migrations", "redis", "kafka-producer"},
		start: func(ctx context.Context) error {
			return registerServices(cfg, logger, db, redisClient, producer)
		},
	})

	boot.AddDependency(&dependency{
		name:      "kafka-consumer",
		dependsOn: []string{"services"},
		start: func(ctx context.Context) error {
			if !cfg.KafkaConsumerEnabled {
				logger.Info("Kafka consumer disabled")
				return nil
			}
			ingester := listings.NewIngester(listingrepo.NewRepository(db, logger), logger)
			consumer = kafka.NewConsumer(kafka.ConsumerConfig{
				Brokers:       cfg.KafkaBrokers,
				Topic:         cfg.KafkaListingTopic,
				ConsumerGroup: cfg.KafkaConsumerGroup,
			}, logger, ingester.Handle)
			return consumer.Start(ctx)
		},
		stop: func(ctx context.Context) error {
			if consumer == nil {
				return nil
			}
			return consumer.Stop()
		},
	})

	boot.AddDependency(&dependency{
		name:      "http-server",
		dependsOn: []string{"services"},
		start: func(ctx context.Context) error {
			healthChecker = health.NewChecker(db, redisClient, version)

			e.HTTPErrorHandler = middleware.Error(logger)
			e.Use(otelecho.Middleware(cfg.AppName))
			e.Use(middleware.Context())
			e.Use(middleware.Logger(logger))
			e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
				AllowOrigins: cfg.AllowOrigins,
				AllowMethods: cfg.AllowMethods,
			}))

			api := e.Group("/api/v1")
			interactionroutes.Register(api.Group("/interactions"))
			conversationroutes.Register(api.Group("/conversations"))
			healthChecker.RegisterRoutes(e)
			e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

			e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
			e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
			e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
			e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
			e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

			go func() {
				if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Error("HTTP server stopped unexpectedly")
					cancel()
				}
			}()

			logger.Infof("%s listening on port %d", cfg.AppName, cfg.Port)
			healthChecker.SetReady(true)
			return nil
		},
		stop: func(ctx context.Context) error {
			healthChecker.SetReady(false)
			return e.Shutdown(ctx)
		},
	})

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := boot.Stop(stopCtx); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
}

// registerServices wires the repositories and services into the DI
// container the route handlers resolve from.
func registerServices(cfg config.Config, logger ectologger.Logger, db database.DB, redisClient *redis.Client, producer *kafka.Producer) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	interactionRepo := interactionrepo.NewRepository(db, logger)
	listingRepo := listingrepo.NewRepository(db, logger)
	conversationRepo := conversationrepo.NewRepository(db, logger)
	messageRepo := messagerepo.NewRepository(db, logger)
	userRepo := userrepo.NewRepository(db, logger)

	emitter := events.NewEmitter(producer, logger)
	unreadCache := cache.NewUnreadCache(redisClient, cfg.UnreadBadgeCacheTTL, logger)
	detector := matching.NewDetector(listingRepo, logger)

	httpClientCfg := httpclient.DefaultConfig()
	httpClientCfg.Timeout = cfg.NotifyTimeout
	dispatcher := notify.NewDispatcher(httpclient.NewClient(httpClientCfg, logger), notify.Config{
		WebhookURL:         cfg.NotifyWebhookURL,
		Enabled:            cfg.NotifyEnabled && cfg.NotifyWebhookURL != "",
		MarketplaceBaseURL: cfg.MarketplaceBaseURL,
	}, logger)

	conversationService := conversations.NewService(
		db,
		conversationRepo,
		messageRepo,
		userRepo,
		emitter,
		unreadCache,
		conversations.Config{
			MessageMaxLength:      cfg.MessageMaxLength,
			MessagePageSize:       cfg.MessagePageSize,
			ConversationListLimit: cfg.ConversationLimit,
		},
		logger,
	)

	interactionService := interactions.NewService(
		interactionRepo,
		listingRepo,
		detector,
		conversationService,
		userRepo,
		dispatcher,
		emitter,
		logger,
	)

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[database.DB](container, db); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*conversations.Service](container, conversationService); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*interactions.Service](container, interactionService); err != nil {
		return err
	}

	return nil
}
