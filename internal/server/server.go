package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/stackit/backend/internal/config"
	"github.com/emilythestrangee/stackit/backend/internal/database"
	"github.com/emilythestrangee/stackit/backend/internal/handlers"
	"github.com/emilythestrangee/stackit/backend/internal/logging"
	"github.com/emilythestrangee/stackit/backend/internal/metrics"
	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/tags"
	"github.com/emilythestrangee/stackit/backend/internal/voting"
)

const tagCacheTTL = 5 * time.Minute

type Server struct {
	cfg          *config.Config
	db           database.Service
	handler      *handlers.Handler
	metrics      *metrics.Metrics
	logger       *slog.Logger
	voteLimiter  *middleware.RateLimiter
	writeLimiter *middleware.RateLimiter
}

// New wires the voting engine and handlers on top of db. m may be nil, in
// which case /metrics is not served.
func New(cfg *config.Config, db database.Service, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}

	var recorder metrics.Recorder = metrics.Noop{}
	if m != nil {
		recorder = m
	}
	engine := voting.New(db.GetDB(),
		voting.WithLogger(logger),
		voting.WithRecorder(recorder),
		voting.WithRetry(cfg.Voting),
	)

	handler := handlers.NewHandler(handlers.Deps{
		DB:     db.GetDB(),
		Engine: engine,
		Tags:   tags.NewCatalog(db.GetDB(), tagCacheTTL),
		Logger: logger,
	})

	return &Server{
		cfg:          cfg,
		db:           db,
		handler:      handler,
		metrics:      m,
		logger:       logger,
		voteLimiter:  middleware.NewRateLimiter(cfg.Server.VoteRatePerMin, 10),
		writeLimiter: middleware.NewRateLimiter(cfg.Server.WriteRatePerMin, 5),
	}
}

// HTTPServer returns the http.Server for the configured port
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Server.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  s.cfg.Server.IdleTimeout,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logging.Module(s.logger, "http")))

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: !allowsAll(s.cfg.Server.AllowOrigins),
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		stats := s.db.Health(c.Request.Context())
		status := http.StatusOK
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, stats)
	})
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	secret, issuer := s.cfg.Auth.JWTSecret, s.cfg.Auth.Issuer
	h := s.handler

	// API routes
	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(secret, issuer))
	{
		// Question routes (public reads)
		api.GET("/questions", h.Question.GetQuestions)
		api.GET("/questions/:id", h.Question.GetQuestion)
		api.GET("/questions/:id/answers", h.Answer.GetAnswers)

		// Comment routes (public reads)
		api.GET("/questions/:id/comments", h.Comment.GetQuestionComments)
		api.GET("/answers/:id/comments", h.Comment.GetAnswerComments)

		api.GET("/votes/:targetType/:id", h.Vote.GetAggregate)
		api.GET("/tags", h.Tag.GetTags)

		// User routes (public reads)
		api.GET("/users/:id", h.Profile.GetProfile)
		api.GET("/users/:id/followers", h.Follow.GetFollowers)
		api.GET("/users/:id/following", h.Follow.GetFollowing)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(secret, issuer), h.Profile.Ensure())
		{
			protected.GET("/me", h.Profile.GetMe)
			protected.PUT("/me", h.Profile.UpdateMe)

			write := s.writeLimiter.Middleware()
			vote := s.voteLimiter.Middleware()

			// Question protected routes
			protected.POST("/questions", write, h.Question.CreateQuestion)
			protected.PUT("/questions/:id", h.Question.UpdateQuestion)
			protected.DELETE("/questions/:id", h.Question.DeleteQuestion)
			protected.POST("/questions/:id/accept", h.Vote.AcceptAnswer)
			protected.DELETE("/questions/:id/accept", h.Vote.ClearAcceptedAnswer)

			// Answer protected routes
			protected.POST("/questions/:id/answers", write, h.Answer.CreateAnswer)
			protected.PUT("/answers/:id", h.Answer.UpdateAnswer)
			protected.DELETE("/answers/:id", h.Answer.DeleteAnswer)

			// Vote routes
			protected.POST("/votes", vote, h.Vote.SubmitVote)
			protected.POST("/questions/:id/vote", vote, h.Vote.VoteQuestion)
			protected.POST("/answers/:id/vote", vote, h.Vote.VoteAnswer)

			// Comment protected routes
			protected.POST("/questions/:id/comments", write, h.Comment.CreateQuestionComment)
			protected.POST("/answers/:id/comments", write, h.Comment.CreateAnswerComment)
			protected.PUT("/comments/:id", h.Comment.UpdateComment)
			protected.DELETE("/comments/:id", h.Comment.DeleteComment)

			protected.GET("/notifications", h.Notification.GetNotifications)
			protected.POST("/notifications/read-all", h.Notification.MarkAllRead)
			protected.POST("/notifications/:id/read", h.Notification.MarkRead)

			protected.GET("/bookmarks", h.Bookmark.GetBookmarks)
			protected.POST("/bookmarks", h.Bookmark.CreateBookmark)
			protected.DELETE("/bookmarks/:targetType/:id", h.Bookmark.DeleteBookmark)

			// User protected routes
			protected.POST("/users/:id/follow", h.Follow.FollowUser)
			protected.DELETE("/users/:id/follow", h.Follow.UnfollowUser)

			moderation := protected.Group("/moderation")
			moderation.Use(h.Moderation.RequireModerator())
			{
				moderation.PUT("/questions/:id/status", h.Moderation.SetQuestionStatus)
				moderation.POST("/users/:id/ban", h.Moderation.BanUser)
				moderation.GET("/logs", h.Moderation.GetLogs)
			}
		}
	}

	return r
}

func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
