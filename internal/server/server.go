package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/agora/backend/internal/auth"
	"github.com/emilythestrangee/agora/backend/internal/database"
	"github.com/emilythestrangee/agora/backend/internal/handlers"
	"github.com/emilythestrangee/agora/backend/internal/logger"
	"github.com/emilythestrangee/agora/backend/internal/middleware"
)

const sessionName = "agora_session"

type Server struct {
	db            database.Service
	handler       *handlers.Handler
	tokens        *auth.Tokens
	activity      middleware.Toucher
	sessionSecret string
}

func New(db database.Service, handler *handlers.Handler, tokens *auth.Tokens, activity middleware.Toucher, sessionSecret string) *Server {
	return &Server{
		db:            db,
		handler:       handler,
		tokens:        tokens,
		activity:      activity,
		sessionSecret: sessionSecret,
	}
}

// HTTPServer wraps the router in an http.Server listening on port.
func (s *Server) HTTPServer(port string) *http.Server {
	if port == "" {
		port = "8080" // local dev fallback
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	logger.Log.Infof("🚀 Server starting on port %s", port)
	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Flash messages for redirects
	store := cookie.NewStore([]byte(s.sessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 3600, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	// Health check endpoint
	r.GET("/health", s.health)

	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(s.tokens), middleware.TrackActivity(s.activity))
	{
		h := s.handler

		// Auth routes (public)
		api.POST("/register", h.Auth.Register)
		api.POST("/login", h.Auth.Login)
		api.GET("/activate/:token", h.Auth.Activate)
		api.GET("/messages", handlers.Messages)

		// Public reads
		api.GET("/communities", h.Community.GetCommunities)
		api.GET("/communities/:slug", h.Community.GetCommunity)
		api.GET("/communities/:slug/posts", h.Community.GetCommunityPosts)
		api.GET("/communities/:slug/members", h.Community.GetMembers)
		api.GET("/posts", h.Post.GetPosts)
		api.GET("/posts/:id", h.Post.GetPost)
		api.GET("/posts/:id/comments", h.Comment.GetComments)
		api.GET("/posts/:id/awards", h.Award.GetAwards)
		api.GET("/tags/:name/posts", h.Post.GetPostsByTag)
		api.GET("/users/:id", h.User.GetUserProfile)
		api.GET("/awards/choices", h.Award.GetRewardChoices)
		api.GET("/reports/types", h.Moderation.GetReportTypes)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.tokens))
		{
			protected.GET("/me", h.Auth.GetMe)
			protected.GET("/me/saved", h.User.GetSavedPosts)
			protected.PUT("/users/:id", h.User.UpdateUserProfile)

			// Communities
			protected.POST("/communities", h.Community.CreateCommunity)
			protected.PATCH("/communities/:slug", h.Community.UpdateCommunity)
			protected.POST("/communities/:slug/slug", h.Community.RegenerateSlug)
			protected.POST("/communities/:slug/membership", h.Community.JoinCommunity)
			protected.DELETE("/communities/:slug/membership", h.Community.LeaveCommunity)
			protected.POST("/communities/:slug/members/:userId", h.Community.AddMember)
			protected.PUT("/communities/:slug/moderators/:userId", h.Community.AddModerator)
			protected.DELETE("/communities/:slug/moderators/:userId", h.Community.RemoveModerator)
			protected.POST("/communities/:slug/posts", h.Community.CreatePost)

			// Posts
			protected.PUT("/posts/:id", h.Post.UpdatePost)
			protected.DELETE("/posts/:id", h.Post.DeletePost)
			protected.POST("/posts/:id/vote", h.Post.VotePost)
			protected.DELETE("/posts/:id/vote", h.Post.UnvotePost)
			protected.POST("/posts/:id/save", h.Post.SavePost)
			protected.DELETE("/posts/:id/save", h.Post.UnsavePost)
			protected.POST("/posts/:id/comments", h.Comment.CreateComment)
			protected.POST("/posts/:id/awards", h.Award.CreateAward)
			protected.POST("/posts/:id/reports", h.Moderation.CreateReport)

			// Moderation (staff only, checked by the service)
			protected.GET("/moderation/reports", h.Moderation.GetReports)
			protected.GET("/moderation/reports/:id", h.Moderation.GetReport)
			protected.POST("/moderation/reports/:id/actions", h.Moderation.HandleAction)
		}
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	stats := s.db.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}
