package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/agora/backend/internal/auth"
	"github.com/emilythestrangee/agora/backend/internal/models"
	"github.com/emilythestrangee/agora/backend/internal/services"
)

type AuthHandler struct {
	users  *services.UserService
	tokens *auth.Tokens
}

func NewAuthHandler(users *services.UserService, tokens *auth.Tokens) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// Register creates an inactive account and emails the activation link
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully. Check your email to activate your account.",
		"user":    selfJSON(user),
	})
}

// Activate enables the account behind an activation link
func (h *AuthHandler) Activate(c *gin.Context) {
	user, err := h.users.Activate(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account activated", "user": selfJSON(user)})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Token:   token,
		User:    *user,
		Message: "Login successful",
	})
}

// GetMe returns the current authenticated user (PROTECTED - requires authentication)
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, selfJSON(user))
}

// selfJSON is the account as its owner sees it.
func selfJSON(user *models.User) gin.H {
	return gin.H{
		"id":              user.ID,
		"username":        user.Username,
		"email":           user.Email,
		"avatar":          user.Avatar,
		"is_active":       user.IsActive,
		"is_staff":        user.IsStaff,
		"can_create_post": user.CanCreatePost,
		"warnings":        user.Warnings,
		"profile":         user.Profile,
		"created_at":      user.CreatedAt,
	}
}
