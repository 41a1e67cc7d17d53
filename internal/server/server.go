package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"anoa.com/donorhub/internal/config"
	"anoa.com/donorhub/internal/jobs"
	"anoa.com/donorhub/internal/middleware"
	"anoa.com/donorhub/internal/realtime"
	"anoa.com/donorhub/pkg/logger"
	"anoa.com/donorhub/pkg/ratelimiter"
	"anoa.com/donorhub/pkg/storage"

	adminHttp "anoa.com/donorhub/internal/modules/admin/delivery/http"
	adminService "anoa.com/donorhub/internal/modules/admin/service"

	analyticsHttp "anoa.com/donorhub/internal/modules/analytics/delivery/http"
	analyticsRepo "anoa.com/donorhub/internal/modules/analytics/repository"
	analyticsService "anoa.com/donorhub/internal/modules/analytics/service"

	campaignHttp "anoa.com/donorhub/internal/modules/campaign/delivery/http"
	campaignRepo "anoa.com/donorhub/internal/modules/campaign/repository"
	campaignService "anoa.com/donorhub/internal/modules/campaign/service"

	gameHttp "anoa.com/donorhub/internal/modules/game/delivery/http"
	gameRepo "anoa.com/donorhub/internal/modules/game/repository"
	gameService "anoa.com/donorhub/internal/modules/game/service"

	leaderboardHttp "anoa.com/donorhub/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "anoa.com/donorhub/internal/modules/leaderboard/repository"
	leaderboardService "anoa.com/donorhub/internal/modules/leaderboard/service"

	membershipHttp "anoa.com/donorhub/internal/modules/membership/delivery/http"
	membershipRepo "anoa.com/donorhub/internal/modules/membership/repository"
	membershipService "anoa.com/donorhub/internal/modules/membership/service"

	notifHttp "anoa.com/donorhub/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/donorhub/internal/modules/notification/repository"
	notifService "anoa.com/donorhub/internal/modules/notification/service"

	pledgeHttp "anoa.com/donorhub/internal/modules/pledge/delivery/http"
	pledgeRepo "anoa.com/donorhub/internal/modules/pledge/repository"
	pledgeService "anoa.com/donorhub/internal/modules/pledge/service"

	presenceHttp "anoa.com/donorhub/internal/modules/presence/delivery/http"
	presenceService "anoa.com/donorhub/internal/modules/presence/service"

	profileHttp "anoa.com/donorhub/internal/modules/profile/delivery/http"
	profileService "anoa.com/donorhub/internal/modules/profile/service"

	rankHttp "anoa.com/donorhub/internal/modules/rank/delivery/http"
	rankService "anoa.com/donorhub/internal/modules/rank/service"

	searchService "anoa.com/donorhub/internal/modules/search/service"

	userHttp "anoa.com/donorhub/internal/modules/user/delivery/http"
	userRepo "anoa.com/donorhub/internal/modules/user/repository"
	userService "anoa.com/donorhub/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

type Server struct {
	cfg         *config.Config
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *jobs.Scheduler
	leaderboard leaderboardService.LeaderboardService
	log         *zap.Logger
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log *zap.Logger) (*Server, error) {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	var imageStorage storage.ImageStorage
	if cfg.StorageConfigured() {
		s, err := storage.NewCloudinaryStorage(storage.CloudinaryOptions{
			URL:          cfg.CloudinaryURL,
			CloudName:    cfg.CloudinaryCloudName,
			APIKey:       cfg.CloudinaryAPIKey,
			APISecret:    cfg.CloudinaryAPISecret,
			UploadFolder: cfg.CloudinaryUploadFolder,
		})
		if err != nil {
			return nil, err
		}
		imageStorage = s
	} else {
		log.Warn("cloudinary not configured, image uploads disabled")
	}

	var meiliClient meilisearch.ServiceManager
	if !cfg.SearchDisabled {
		meiliClient = meilisearch.New(cfg.MeiliHost(), meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	}
	if redisClient == nil {
		log.Warn("redis not configured, realtime, caching and rate limiting disabled")
	}

	broker := realtime.NewBroker(redisClient, log.Named("realtime"), cfg.Origins())

	userRepository := userRepo.NewUserRepository(db)
	leaderboardRepository := leaderboardRepo.NewLeaderboardRepository(db)
	teamRepository := membershipRepo.NewTeamRepository(db)
	notificationRepository := notifRepo.NewNotificationRepository(db)
	campaignRepository := campaignRepo.NewCampaignRepository(db)
	pledgeRepository := pledgeRepo.NewPledgeRepository(db)
	gameRepository := gameRepo.NewGameRepository(db)
	analyticsRepository := analyticsRepo.NewAnalyticsRepository(db)

	// Notification Module
	notificationSvc := notifService.NewNotificationService(notificationRepository, broker, log.Named("notification"))
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc, broker)

	membershipSvc := membershipService.NewMembershipService(teamRepository, userRepository, notificationSvc, redisClient, cfg.MembershipCacheTTL, log.Named("membership"))
	membershipHandler := membershipHttp.NewMembershipHandler(membershipSvc)

	// Rank + XP
	rankTable := rankService.DefaultTable()
	rankSvc := rankService.NewRankService(rankTable, leaderboardRepository, membershipSvc, userRepository, log.Named("rank"))
	rankHandler := rankHttp.NewRankHandler(rankSvc)

	leaderboardSvc := leaderboardService.NewLeaderboardService(leaderboardRepository, rankSvc, rankTable, notificationSvc, cfg.XPPerCurrencyUnit, log.Named("leaderboard"))
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	searchSvc := searchService.NewSearchService(meiliClient, log.Named("search"))

	authSvc := userService.NewAuthService(userRepository, searchSvc, userService.AuthOptions{
		Secret:       cfg.JWTSecret,
		TokenTTL:     cfg.JWTTTL,
		DefaultRole:  cfg.DefaultRole,
		GoogleID:     cfg.GoogleID,
		GoogleSecret: cfg.GoogleSecret,
		GoogleRedir:  cfg.GoogleRedir,
		GoogleDomain: cfg.GoogleDomain,
	}, log.Named("auth"))
	authHandler := userHttp.NewAuthHandler(authSvc, cfg.FrontendURL, !cfg.IsDevelopment())

	profileSvc := profileService.NewProfileService(userRepository, imageStorage, leaderboardRepository, rankSvc, leaderboardSvc, searchSvc, log.Named("profile"))
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	adminSvc := adminService.NewAdminService(userRepository, imageStorage, searchSvc, leaderboardRepository, membershipSvc, log.Named("admin"))
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	// Campaigns + pledges
	campaignSvc := campaignService.NewCampaignService(campaignRepository, imageStorage, log.Named("campaign"))
	campaignHandler := campaignHttp.NewCampaignHandler(campaignSvc)

	pledgeSvc := pledgeService.NewPledgeService(pledgeRepository, campaignRepository, pledgeService.Options{
		Limiter:   ratelimiter.New(redisClient),
		Window:    cfg.RateLimitPledge,
		XP:        leaderboardSvc,
		XPPerUnit: cfg.XPPerCurrencyUnit,
		Notifier:  notificationSvc,
	}, log.Named("pledge"))
	pledgeHandler := pledgeHttp.NewPledgeHandler(pledgeSvc)

	analyticsSvc := analyticsService.NewAnalyticsService(analyticsRepository, userRepository, log.Named("analytics"))
	analyticsHandler := analyticsHttp.NewAnalyticsHandler(analyticsSvc)

	gameSvc := gameService.NewGameService(gameRepository, broker, notificationSvc, log.Named("game"))
	gameHandler := gameHttp.NewGameHandler(gameSvc, broker)

	tracker := presenceService.NewTracker(redisClient)
	presenceHandler := presenceHttp.NewPresenceHandler(tracker, userRepository, cfg.PresenceWindow)

	// Background jobs
	scheduler := jobs.NewScheduler(cfg.JobTimeout, log.Named("jobs"))
	for _, job := range jobs.Builtin(leaderboardSvc, tracker, cfg.PresenceRetention, log.Named("jobs")) {
		if err := scheduler.Register(job); err != nil {
			return nil, err
		}
	}

	router := gin.New()

	setupCORS(router, cfg.Origins())

	router.Use(gin.Recovery())
	router.Use(logger.Middleware(log, "/api/health", "/api/presence/heartbeat"))

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret, userRepository)

	api := router.Group("/api")
	api.GET("/health", healthHandler(db, redisClient))

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/google/login", authHandler.GoogleLogin)
		auth.GET("/google/callback", authHandler.GoogleCallback)
	}

	api.GET("/ranks/thresholds", rankHandler.GetThresholds)
	api.GET("/campaigns", campaignHandler.ListCampaigns)
	api.GET("/campaigns/:slug", campaignHandler.GetCampaign)
	api.GET("/campaigns/:slug/pledges", pledgeHandler.ListCampaignPledges)

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/users", adminHandler.CreateUser)
			adminGroup.GET("/users", adminHandler.GetAllUsers)
			adminGroup.PUT("/users/:id", adminHandler.UpdateUser)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.GET("/donors/search", adminHandler.SearchDonors)

			adminGroup.GET("/team", membershipHandler.ListMembers)
			adminGroup.POST("/team", membershipHandler.AddMember)
			adminGroup.DELETE("/team/:user_id", membershipHandler.RemoveMember)

			adminGroup.POST("/campaigns", campaignHandler.CreateCampaign)
			adminGroup.POST("/campaigns/:slug/close", campaignHandler.CloseCampaign)

			adminGroup.GET("/analytics", analyticsHandler.GetSummary)
		}

		// Rank routes
		protected.GET("/ranks/me", rankHandler.GetMyRank)
		protected.GET("/ranks/:username", rankHandler.GetRankByUsername)
		protected.GET("/leaderboard", leaderboardHandler.GetLeaderboard)

		// Profile routes
		protected.GET("/profile/me", profileHandler.GetCurrentProfile)
		protected.GET("/profile/:username", profileHandler.GetProfileByUsername)
		protected.PUT("/profile", profileHandler.UpdateProfile)

		// Pledge routes
		protected.POST("/campaigns/:slug/pledges", pledgeHandler.CreatePledge)
		protected.GET("/pledges/me", pledgeHandler.ListMyPledges)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Game routes
		protected.POST("/games", gameHandler.CreateGame)
		protected.GET("/games/:id", gameHandler.GetGame)
		protected.POST("/games/:id/join", gameHandler.JoinGame)
		protected.POST("/games/:id/start", gameHandler.StartGame)
		protected.POST("/games/:id/moves", gameHandler.SubmitMove)
		protected.POST("/games/:id/moves/:move_id/resolve", gameHandler.ResolveMove)
		protected.POST("/games/:id/end-turn", gameHandler.EndTurn)
		protected.GET("/games/:id/ws", gameHandler.HandleWebSocket)

		// Presence routes
		protected.POST("/presence/heartbeat", presenceHandler.Heartbeat)
		protected.GET("/presence", presenceHandler.Online)
	}

	return &Server{
		cfg:         cfg,
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   scheduler,
		leaderboard: leaderboardSvc,
		log:         log,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Scheduler() *jobs.Scheduler {
	return s.scheduler
}

// Run serves until ctx is cancelled, then drains HTTP, cron jobs and pending
// XP awards.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.JobsEnabled {
		s.scheduler.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("http shutdown failed", zap.Error(err))
	}
	if s.cfg.JobsEnabled {
		s.scheduler.Stop(shutdownCtx)
	}
	s.leaderboard.Wait()

	return runErr
}

func healthHandler(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"database": "ok", "redis": "disabled"}
		code := http.StatusOK

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"] = "down"
			code = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			status["redis"] = "ok"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				status["redis"] = "down"
				code = http.StatusServiceUnavailable
			}
		}

		c.JSON(code, status)
	}
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
