package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/agora/backend/internal/models"
	"github.com/emilythestrangee/agora/backend/internal/services"
)

type CommentHandler struct {
	content *services.ContentService
	posts   *PostHandler
}

func NewCommentHandler(svc Services, posts *PostHandler) *CommentHandler {
	return &CommentHandler{content: svc.Content, posts: posts}
}

// GetComments returns the comment tree of a post
func (h *CommentHandler) GetComments(c *gin.Context) {
	post, ok := h.posts.readablePost(c)
	if !ok {
		return
	}

	rootID := post.ID
	if post.RootID != nil {
		rootID = *post.RootID
	}
	tree, err := h.content.Thread(c.Request.Context(), rootID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post_id": post.ID, "comments": commentTree(tree)})
}

// CreateComment replies to a post or to one of its comments (PROTECTED - requires authentication)
func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	ctx := c.Request.Context()

	parentID := postID
	if input.ParentID != nil && *input.ParentID != postID {
		parent, err := h.content.Get(ctx, *input.ParentID)
		if err != nil {
			respondError(c, services.ErrParentNotFound)
			return
		}
		if parent.RootID == nil || *parent.RootID != postID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parent comment belongs to another thread", "code": "INVALID_PARENT"})
			return
		}
		parentID = parent.ID
	}

	comment, err := h.content.Create(ctx, services.CreatePostInput{
		AuthorID: userID,
		Body:     input.Body,
		ParentID: &parentID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if full, err := h.content.Get(ctx, comment.ID); err == nil {
		comment = full
	}
	c.JSON(http.StatusCreated, postJSON(comment))
}
