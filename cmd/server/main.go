package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/edutrading/internal/auth"
	marketapp "github.com/wyfcoding/edutrading/internal/marketdata/application"
	marketdomain "github.com/wyfcoding/edutrading/internal/marketdata/domain"
	memorycache "github.com/wyfcoding/edutrading/internal/marketdata/infrastructure/persistence/memory"
	marketmysql "github.com/wyfcoding/edutrading/internal/marketdata/infrastructure/persistence/mysql"
	marketredis "github.com/wyfcoding/edutrading/internal/marketdata/infrastructure/persistence/redis"
	"github.com/wyfcoding/edutrading/internal/marketdata/infrastructure/provider/yahoo"
	markethttp "github.com/wyfcoding/edutrading/internal/marketdata/interfaces/http"
	tradingapp "github.com/wyfcoding/edutrading/internal/trading/application"
	tradingdomain "github.com/wyfcoding/edutrading/internal/trading/domain"
	"github.com/wyfcoding/edutrading/internal/trading/infrastructure/messaging"
	tradingmysql "github.com/wyfcoding/edutrading/internal/trading/infrastructure/persistence/mysql"
	tradinghttp "github.com/wyfcoding/edutrading/internal/trading/interfaces/http"
	"github.com/wyfcoding/edutrading/pkg/cache"
	"github.com/wyfcoding/edutrading/pkg/config"
	"github.com/wyfcoding/edutrading/pkg/db"
	"github.com/wyfcoding/edutrading/pkg/logger"
	"github.com/wyfcoding/edutrading/pkg/metrics"
	"github.com/wyfcoding/edutrading/pkg/middleware"
	"github.com/wyfcoding/edutrading/pkg/mq"
	"github.com/wyfcoding/edutrading/pkg/ratelimit"
	"github.com/wyfcoding/edutrading/pkg/utils"
)

var configPath = flag.String("config", "configs/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 初始化配置
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 3. 初始化指标
	m := metrics.New(cfg.ServiceName)
	if err := m.Register(); err != nil {
		panic(fmt.Sprintf("failed to register metrics: %v", err))
	}
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				slog.Error("metrics server exited", "error", err)
			}
		}()
	}

	// 4. 初始化数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}

	// Auto Migrate (仅用于开发方便)
	if cfg.Environment == "dev" {
		if err := database.AutoMigrate(
			&tradingdomain.Portfolio{},
			&tradingdomain.Position{},
			&tradingdomain.Order{},
			&marketdomain.Instrument{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// 5. 初始化缓存，Redis 不可用或未启用时降级为进程内缓存
	var (
		marketCache marketdomain.CacheStore
		redisCache  *cache.RedisCache
	)
	if cfg.Redis.Enabled {
		redisCache, err = cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			slog.Error("failed to init redis, falling back to in-memory cache", "error", err)
		}
	}
	if redisCache != nil {
		marketCache = marketredis.NewMarketCache(redisCache)
	} else {
		marketCache = memorycache.NewMarketCache()
	}

	// 6. 初始化事件发布
	var publisher tradingdomain.EventPublisher
	if cfg.Trading.EventsEnabled && len(cfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:        cfg.Kafka.Brokers,
			GroupID:        cfg.Kafka.GroupID,
			SessionTimeout: cfg.Kafka.SessionTimeout,
		})
		if err != nil {
			slog.Error("failed to init kafka producer, events disabled", "error", err)
		} else {
			defer producer.Close()
			publisher = messaging.NewKafkaPublisher(producer, cfg.Trading.OrderTopic)
		}
	}

	// 7. 初始化仓储与应用服务
	provider := yahoo.NewClient(
		cfg.MarketData.ProviderBaseURL,
		time.Duration(cfg.MarketData.RequestTimeout)*time.Second,
	)
	instrumentRepo := marketmysql.NewInstrumentRepository(database.DB)
	marketService := marketapp.NewMarketDataService(
		provider, marketCache, instrumentRepo, m, cfg.MarketData.MaxConcurrency,
	)

	portfolioRepo := tradingmysql.NewPortfolioRepository(database.DB)
	idgen := utils.NewSnowflakeID(1)
	tradingService := tradingapp.NewTradingService(portfolioRepo, marketService, publisher, idgen, m)

	// 8. 初始化接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(middleware.GinRecoveryMiddleware())
	r.Use(middleware.GinLoggingMiddleware())
	r.Use(middleware.GinCORSMiddleware())
	r.Use(middleware.GinMetricsMiddleware(m))
	if cfg.RateLimit.Enabled && redisCache != nil {
		limiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())
		r.Use(middleware.GinRateLimitMiddleware(
			limiter,
			ratelimit.PerSecond(cfg.RateLimit.RequestsPerSecond),
			func(c *gin.Context) string { return c.ClientIP() },
		))
	}
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName, "version": cfg.Version})
	})

	issuer := auth.NewTokenIssuer(cfg.Auth.Secret, cfg.ServiceName, 24*time.Hour)

	api := r.Group("/api")
	markethttp.NewMarketDataHandler(marketService).RegisterRoutes(api)

	protected := r.Group("/api")
	protected.Use(issuer.Middleware())
	tradinghttp.NewTradingHandler(tradingService, auth.CurrentUser).RegisterRoutes(protected)

	// 9. 启动与优雅关闭
	g, ctx := errgroup.WithContext(context.Background())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down server...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
