package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/agora/backend/internal/apperrors"
	"github.com/emilythestrangee/agora/backend/internal/auth"
	"github.com/emilythestrangee/agora/backend/internal/logger"
	"github.com/emilythestrangee/agora/backend/internal/middleware"
	"github.com/emilythestrangee/agora/backend/internal/services"
)

// Services holds the domain services the handlers delegate to.
type Services struct {
	Users       *services.UserService
	Content     *services.ContentService
	Votes       *services.VoteService
	Communities *services.CommunityService
	Awards      *services.AwardService
	Moderation  *services.ModerationService
	Saved       *services.SavedService
}

type Options struct {
	PageSize    int
	OnlineLimit time.Duration
}

// Handler combines all handler types
type Handler struct {
	Auth       *AuthHandler
	Post       *PostHandler
	Comment    *CommentHandler
	User       *UserHandler
	Community  *CommunityHandler
	Award      *AwardHandler
	Moderation *ModerationHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(svc Services, tokens *auth.Tokens, opts Options) *Handler {
	if opts.PageSize < 1 {
		opts.PageSize = services.DefaultPageSize
	}
	p := pager{size: opts.PageSize}
	posts := NewPostHandler(svc, p)

	return &Handler{
		Auth:       NewAuthHandler(svc.Users, tokens),
		Post:       posts,
		Comment:    NewCommentHandler(svc, posts),
		User:       NewUserHandler(svc.Users, svc.Saved, p, opts.OnlineLimit),
		Community:  NewCommunityHandler(svc.Communities, svc.Content, p),
		Award:      NewAwardHandler(svc.Awards, posts),
		Moderation: NewModerationHandler(svc.Moderation, svc.Users, p),
	}
}

func extractUserID(c *gin.Context) (int, bool) {
	id := middleware.UserID(c)
	return id, id != 0
}

// requireUserID writes a 401 when the request is anonymous.
func requireUserID(c *gin.Context) (int, bool) {
	id, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "code": "UNAUTHORIZED"})
	}
	return id, ok
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name, "code": "INVALID_ID"})
		return 0, false
	}
	return id, true
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_REQUEST"})
}

// respondError maps a service error onto a JSON error response. Internal
// errors are logged and never shown to the client.
func respondError(c *gin.Context, err error) {
	if de, ok := apperrors.As(err); ok {
		body := gin.H{"error": de.Message, "code": de.Code}
		if de.Details != nil {
			body["details"] = de.Details
		}
		c.JSON(apperrors.HTTPStatus(de.Kind), body)
		return
	}
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": "NOT_FOUND"})
		return
	}

	_ = c.Error(err)
	logger.Log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "INTERNAL"})
}
