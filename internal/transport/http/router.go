package httptransport

import (
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"codemail/backend/internal/auth"
	"codemail/backend/internal/auth/session"
	"codemail/backend/internal/config"
	"codemail/backend/internal/health"
	"codemail/backend/internal/middleware"
	"codemail/backend/internal/monitoring"
	"codemail/backend/internal/service"
	"codemail/backend/internal/websocket"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config         *config.Config
	MailboxService *service.MailboxService
	InboxService   *service.InboxService
	AuthService    *auth.Service
	SessionManager *session.Manager
	WebSocketHub   *websocket.Hub       // 可选
	Metrics        *monitoring.Metrics  // 可选
	Health         *health.HealthChecker // 可选
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	// 使用自定义中间件替代默认中间件，
	// 启用指标时用带 panic 计数的恢复中间件
	if deps.Metrics != nil {
		mm := middleware.NewMonitoringMiddleware(deps.Metrics, deps.Logger)
		router.Use(mm.PanicRecovery())
		router.Use(middleware.RequestLogger(deps.Logger))
		router.Use(mm.HTTPMetrics())
	} else {
		router.Use(middleware.RecoveryHandler(deps.Logger))
		router.Use(middleware.RequestLogger(deps.Logger))
	}
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(middleware.DefaultBodyLimit))

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Session-Token"},
		ExposeHeaders:    []string{"Content-Length", "X-Session-Token"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	handler := NewHandler(
		deps.MailboxService,
		deps.InboxService,
		deps.AuthService,
		deps.SessionManager,
		deps.Metrics,
		deps.Logger,
		deps.Config.PasswordRequired(),
	)
	pageHandler := NewPageHandler(
		deps.Config.Mail.DisplayDomain,
		deps.Config.PasswordRequired(),
		deps.Config.Auth.AdminSecret,
	)

	// Swagger 文档
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查与指标
	if deps.Health != nil {
		router.GET("/live", gin.WrapH(deps.Health.Handler()))
		router.GET("/ready", gin.WrapH(deps.Health.Handler()))
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	// 收件箱页面
	router.GET("/", pageHandler.Index)

	// WebSocket 新邮件推送
	if deps.WebSocketHub != nil {
		router.GET("/ws", websocket.HandleWebSocket(deps.WebSocketHub))
	}

	// ========== API Routes ==========
	api := router.Group("/api")
	{
		api.POST("/login-and-fetch", handler.LoginAndFetch)
		api.GET("/validate/:code", handler.ValidateCode)
		api.POST("/user/change-password", handler.ChangePassword)

		// 开通新邮箱需要管理员口令
		api.POST("/mailbox/new", middleware.RequireAdminSecret(deps.Config.Auth.AdminSecret), handler.NewMailbox)

		// 口令模式下轮询需携带会话令牌，管理员凭口令可查任意编码；
		// 开放模式凭编码直接读取
		if deps.Config.PasswordRequired() {
			api.GET("/emails/:code",
				middleware.RequireSessionOrAdminSecret(deps.SessionManager, deps.Config.Auth.AdminSecret),
				handler.ListEmails)
		} else {
			api.GET("/emails/:code", handler.ListEmails)
		}
	}

	return router
}
