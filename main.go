package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pressplan/server/internal/api"
	"pressplan/server/internal/config"
	"pressplan/server/internal/database"
	"pressplan/server/internal/models"
	"pressplan/server/internal/services"
	"pressplan/server/internal/utils"
)

func main() {
	// .env не обязателен (production берет переменные окружения системы)
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	logger, err := initLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("❌ Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Info("ℹ️ .env файл не найден, используем переменные окружения системы")
	} else {
		logger.Info("✅ Переменные окружения загружены из .env файла")
	}
	logger.Info("📋 DATABASE_URL", zap.String("url", maskURL(cfg.DatabaseURL)))

	ctx := context.Background()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("❌ PostgreSQL connection failed, продолжаем без БД (ограниченная функциональность)", zap.Error(err))
		db = nil
	} else {
		defer database.ClosePostgres(db)
		if err := models.AutoMigrate(db, logger); err != nil {
			logger.Error("❌ Migration failed", zap.Error(err))
		}
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL, cfg.RedisSentinelAddrs, cfg.RedisMasterName, logger)
	var redisUtil *utils.RedisClient
	if err != nil {
		logger.Warn("⚠️ Redis connection failed (continuing without Redis)", zap.Error(err))
		redisClient = nil
	} else {
		redisUtil = utils.NewRedisClient(redisClient, "pressplan:")
	}
	defer database.CloseRedis(redisClient)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hub := api.NewHub()
	go hub.Run(hubCtx)

	var events *services.PlanEventPublisher
	if brokers := api.ParseKafkaBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		dialer := api.CreateKafkaDialer(cfg.KafkaUsername, cfg.KafkaPassword, cfg.KafkaCACert, logger)
		events = services.NewPlanEventPublisher(brokers, cfg.KafkaPlanTopic, dialer, logger)
		defer events.Close()

		consumer := api.NewKafkaWSConsumer(brokers, cfg.KafkaPlanTopic, feedGroupID(), dialer, hub, logger)
		consumer.Start()
		defer consumer.Stop()
	} else {
		logger.Warn("⚠️ KAFKA_BROKERS не установлен, события plan.created не отправляются")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	apiGroup := r.Group("/api/v1")
	apiGroup.GET("/health", api.NewHealthController(healthChecks(db, redisUtil), logger).Health)
	apiGroup.GET("/ws/plans", api.NewPlanFeedController(hub, logger).ServeWS)

	var scheduler *cron.Cron
	if db != nil {
		templates := services.NewStationTemplateService(db, logger)
		if err := templates.SeedStationTemplates(ctx); err != nil {
			logger.Error("❌ Failed to seed station templates", zap.Error(err))
		}
		machines := services.NewMachineService(db, templates, logger)
		packages := services.NewPackageService(db, logger)

		var cache services.PlanCache
		if redisUtil != nil {
			cache = redisUtil
		}
		distributions := services.NewDistributionService(
			db, cache, events, machines, packages, services.NewRequirementService(), cfg.Planning, logger,
		)

		api.NewDistributionController(distributions, services.NewReportService(logger), logger).Register(apiGroup)
		api.NewMachineController(machines, logger).Register(apiGroup)
		api.NewCatalogController(templates, packages, logger).Register(apiGroup)
		logger.Info("📋 Planning endpoints enabled: /api/v1/distributions, /machines, /station-templates, /packages")

		scheduler, err = startCleanup(cfg.CleanupSchedule, distributions.DeactivateExpired, logger)
		if err != nil {
			logger.Error("❌ Cleanup job not scheduled", zap.String("schedule", cfg.CleanupSchedule), zap.Error(err))
		}
	} else {
		logger.Warn("⚠️ Planning endpoints not enabled: PostgreSQL not available")
	}

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("🚀 Server starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

func initLogger(level, env string) (*zap.Logger, error) {
	var zapCfg zap.Config
	if env == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func corsConfig(origins []string) cors.Config {
	corsConfig := cors.DefaultConfig()
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	return corsConfig
}

func healthChecks(db *gorm.DB, redisUtil *utils.RedisClient) map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{"postgres": nil, "redis": nil}
	if db != nil {
		checks["postgres"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if redisUtil != nil {
		checks["redis"] = redisUtil.Ping
	}
	return checks
}

// startCleanup периодически снимает с учета истекшие раскладки
func startCleanup(schedule string, sweep func(ctx context.Context) (int64, error), logger *zap.Logger) (*cron.Cron, error) {
	cronLogger := cron.VerbosePrintfLogger(zap.NewStdLog(logger.Named("cron")))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
	)
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := sweep(ctx); err != nil {
			logger.Warn("⚠️ Ошибка деактивации истекших раскладок", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("add cleanup job: %w", err)
	}
	c.Start()
	logger.Info("⏰ Очистка истекших раскладок запущена", zap.String("schedule", schedule))
	return c, nil
}

// feedGroupID у каждого экземпляра своя группа: события получают все экраны
func feedGroupID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return "pressplan-dashboards-" + host
}

// maskURL скрывает логин и пароль в строке подключения
func maskURL(raw string) string {
	at := strings.Index(raw, "@")
	scheme := strings.Index(raw, "://")
	if at > 0 && scheme > 0 && scheme < at {
		return raw[:scheme+3] + "***@" + raw[at+1:]
	}
	return raw
}
