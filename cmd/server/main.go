package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"codemail/backend/internal/auth"
	"codemail/backend/internal/auth/session"
	"codemail/backend/internal/cache"
	"codemail/backend/internal/codegen"
	"codemail/backend/internal/config"
	"codemail/backend/internal/health"
	"codemail/backend/internal/logger"
	"codemail/backend/internal/monitoring"
	"codemail/backend/internal/service"
	"codemail/backend/internal/smtp"
	"codemail/backend/internal/storage"
	"codemail/backend/internal/storage/hybrid"
	"codemail/backend/internal/storage/memory"
	"codemail/backend/internal/storage/redis"
	sqlstore "codemail/backend/internal/storage/sql"
	httptransport "codemail/backend/internal/transport/http"
	"codemail/backend/internal/websocket"
)

func main() {
	// ========== 配置加载 ==========
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if cfg.Log.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// ========== 日志初始化 ==========
	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
		Compress:    true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting codemail server",
		zap.String("auth_mode", cfg.Auth.Mode),
		zap.String("db_type", cfg.Database.Type),
	)

	// ========== 存储层 ==========
	var store storage.Store
	var redisCache *redis.Cache

	if cfg.Database.Type != "" && cfg.Database.DSN != "" {
		dbStore, err := sqlstore.NewStore(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			log.Fatal("failed to connect database", zap.Error(err))
		}
		store = dbStore
		log.Info("using sql storage", zap.String("driver", cfg.Database.Type))

		// 有 Redis 时在数据库前面挂一层缓存
		if cfg.Redis.Address != "" {
			redisCache, err = redis.NewCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				log.Fatal("failed to connect redis", zap.Error(err))
			}
			store = hybrid.NewStore(dbStore, redisCache)
			log.Info("redis cache enabled", zap.String("address", cfg.Redis.Address))
		}
	} else {
		store = memory.NewStore()
		log.Warn("using in-memory storage, data will not survive restarts")
	}
	defer store.Close()

	// ========== 监控与健康检查 ==========
	metrics := monitoring.NewMetrics()

	var cachePinger health.Pinger
	if redisCache != nil {
		cachePinger = redisCache
	}
	healthChecker := health.NewHealthChecker(store, cachePinger, log)

	// ========== 业务服务 ==========
	credentials := auth.NewService(store)
	sessions := session.NewManager(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.Expiry)
	mailboxes := service.NewMailboxService(credentials, codegen.NewGenerator(), log).
		WithExistenceCache(cache.NewCodeCache(10000, time.Hour))
	inbox := service.NewInboxService(store)

	// WebSocket 推送中心，同时充当入库通知器
	wsHub := websocket.NewHub(cfg.CORS.AllowedOrigins, sessions, log).WithMetrics(metrics)
	ingest := service.NewIngestService(store, wsHub, log)

	// ========== SMTP 服务器 ==========
	limiter := smtp.NewConnectionLimiter(cfg.SMTP.MaxConnections, cfg.SMTP.MaxConnRate)
	smtpBackend := smtp.NewBackend(ingest, limiter, metrics, log, cfg.SMTP.AllowedDomain)
	smtpServer := smtp.NewServer(smtpBackend, cfg.SMTP.BindAddr, cfg.SMTP.Domain)

	// ========== HTTP 服务器 ==========
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:         cfg,
		MailboxService: mailboxes,
		InboxService:   inbox,
		AuthService:    credentials,
		SessionManager: sessions,
		WebSocketHub:   wsHub,
		Metrics:        metrics,
		Health:         healthChecker,
		Logger:         log,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// ========== 启动与优雅退出 ==========
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		log.Info("smtp server listening", zap.String("addr", smtpServer.Addr))
		if err := smtpServer.ListenAndServe(); err != nil {
			// Close() 之后 ListenAndServe 会返回网络错误，退出途中不当作故障
			select {
			case <-groupCtx.Done():
				return nil
			default:
				return fmt.Errorf("smtp server: %w", err)
			}
		}
		return nil
	})

	group.Go(func() error {
		wsHub.Run(groupCtx)
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", zap.Error(err))
		}
		if err := smtpServer.Close(); err != nil {
			log.Error("smtp shutdown failed", zap.Error(err))
		}
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("server exited with error", zap.Error(err))
	}
	log.Info("server stopped")
}
