package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/agora/backend/internal/apperrors"
	"github.com/emilythestrangee/agora/backend/internal/models"
	"github.com/emilythestrangee/agora/backend/internal/services"
)

type AwardHandler struct {
	awards *services.AwardService
	posts  *PostHandler
}

func NewAwardHandler(awards *services.AwardService, posts *PostHandler) *AwardHandler {
	return &AwardHandler{awards: awards, posts: posts}
}

// GetRewardChoices lists the awards that can be given and their gold value
func (h *AwardHandler) GetRewardChoices(c *gin.Context) {
	c.JSON(http.StatusOK, models.RewardChoices)
}

// GetAwards lists a post's awards with anonymous givers masked
func (h *AwardHandler) GetAwards(c *gin.Context) {
	post, ok := h.posts.readablePost(c)
	if !ok {
		return
	}

	awards, err := h.awards.List(c.Request.Context(), post.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, awards)
}

// CreateAward gives an award to the post's author (PROTECTED - requires authentication)
func (h *AwardHandler) CreateAward(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.CreateAwardRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	award, err := h.awards.Create(c.Request.Context(), postID, userID, input)
	if apperrors.Is(err, services.ErrSelfAward.Code) {
		redirectWithMessage(c, fmt.Sprintf("/api/posts/%d", postID), services.ErrSelfAward.Message)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Award given successfully",
		"id":        award.ID,
		"post_id":   award.PostID,
		"choice":    award.Choice,
		"gold":      award.Gold,
		"anonymous": award.Anonymous,
	})
}
