package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ArowuTest/loyaltybot-backend/internal/config"
	"github.com/ArowuTest/loyaltybot-backend/internal/handlers"
	"github.com/ArowuTest/loyaltybot-backend/internal/middleware"
)

// Dependencies are the handlers and collaborators the router mounts
type Dependencies struct {
	Accounts  *handlers.AccountHandler
	Admin     *handlers.AdminHandler
	Auth      *handlers.AuthHandler
	Support   *handlers.SupportHandler
	Tokens    middleware.TokenValidator
	Gatherer  prometheus.Gatherer
	Health    func() error
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps Dependencies, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedHosts))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logger))
	if cfg.Server.RateLimit > 0 {
		router.Use(middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.Burst).Middleware())
	}

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			if deps.Health != nil {
				if err := deps.Health(); err != nil {
					c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
					return
				}
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		public.POST("/auth/login", deps.Auth.Login)
	}

	// Chat transport routes
	chat := router.Group("/api/v1")
	chat.Use(middleware.ServiceTokenMiddleware(cfg.Server.ServiceToken))
	{
		accounts := chat.Group("/accounts")
		{
			accounts.POST("/register", deps.Accounts.Register)
			accounts.GET("/external/:externalId", deps.Accounts.GetByExternalID)
			accounts.GET("/phone/:phone", deps.Accounts.GetByPhone)
			accounts.POST("/:id/phone", deps.Accounts.AttachPhone)
			accounts.GET("/:id/balance", deps.Accounts.GetBalance)
			accounts.GET("/:id/history", deps.Accounts.GetHistory)
			accounts.GET("/:id/summary", deps.Accounts.GetSummary)
			accounts.GET("/:id/referral", deps.Accounts.GetReferralLink)
		}

		chat.POST("/referrals", deps.Accounts.AwardReferral)

		support := chat.Group("/support")
		{
			support.POST("/tickets", deps.Support.CreateTicket)
			support.POST("/answers", deps.Support.AnswerTicket)
			support.POST("/tickets/:id/close", deps.Support.CloseTicket)
			support.GET("/users/:externalId/tickets", deps.Support.ListUserTickets)
		}
	}

	// Admin routes
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(deps.Tokens, logger))
	{
		admin.GET("/accounts", deps.Admin.ListAccounts)
		admin.GET("/accounts/search", deps.Admin.SearchAccounts)
		admin.GET("/accounts/:id", deps.Admin.GetAccount)
		admin.POST("/accounts", deps.Admin.AddAccount)
		admin.POST("/accounts/:id/points", deps.Admin.AdjustPoints)
		admin.GET("/stats", deps.Admin.Stats)
		admin.GET("/stats/points", deps.Admin.PointStats)
		admin.GET("/reconcile", deps.Admin.Reconcile)

		maintenance := admin.Group("/maintenance")
		{
			maintenance.POST("/empty", deps.Admin.DeleteEmpty)
			maintenance.POST("/duplicates", deps.Admin.CleanDuplicates)
			maintenance.POST("/cleanup", deps.Admin.SafeCleanup)
			maintenance.POST("/backup", deps.Admin.Backup)
		}
	}

	return router
}
