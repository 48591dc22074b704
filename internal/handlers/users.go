package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/agora/backend/internal/models"
	"github.com/emilythestrangee/agora/backend/internal/services"
)

type UserHandler struct {
	users       *services.UserService
	saved       *services.SavedService
	pager       pager
	onlineLimit time.Duration
	now         func() time.Time
}

func NewUserHandler(users *services.UserService, saved *services.SavedService, p pager, onlineLimit time.Duration) *UserHandler {
	return &UserHandler{users: users, saved: saved, pager: p, onlineLimit: onlineLimit, now: time.Now}
}

// GetUserProfile returns a user's public profile
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.publicJSON(user))
}

func (h *UserHandler) publicJSON(user *models.User) gin.H {
	now := h.now()
	return gin.H{
		"id":                user.ID,
		"username":          user.Username,
		"display_name":      user.DisplayName(),
		"avatar":            user.Avatar,
		"profile":           user.Profile,
		"is_online":         user.IsOnline(now, h.onlineLimit),
		"last_activity_ago": user.LastActivityAgo(now),
		"created_at":        user.CreatedAt,
	}
}

// UpdateUserProfile changes bio and avatar (PROTECTED - own profile only)
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	authUserID, ok := requireUserID(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if authUserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own profile", "code": "FORBIDDEN"})
		return
	}

	var input struct {
		Bio    *string `json:"bio" binding:"omitempty,max=500"`
		Avatar *string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, input.Bio, input.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.publicJSON(user))
}

// GetSavedPosts lists the caller's saved posts (PROTECTED - requires authentication)
func (h *UserHandler) GetSavedPosts(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	page := h.pager.page(c)
	posts, total, err := h.saved.List(c.Request.Context(), userID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	h.pager.respond(c, page, total, postSummaries(posts))
}
