package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/agora/backend/internal/logger"
	"github.com/emilythestrangee/agora/backend/internal/models"
	"github.com/emilythestrangee/agora/backend/internal/render"
	"github.com/emilythestrangee/agora/backend/internal/services"
)

type PostHandler struct {
	content     *services.ContentService
	votes       *services.VoteService
	communities *services.CommunityService
	saved       *services.SavedService
	pager       pager
}

func NewPostHandler(svc Services, p pager) *PostHandler {
	return &PostHandler{
		content:     svc.Content,
		votes:       svc.Votes,
		communities: svc.Communities,
		saved:       svc.Saved,
		pager:       p,
	}
}

// GetPosts lists root posts outside private communities, top voted first
func (h *PostHandler) GetPosts(c *gin.Context) {
	opts := services.ListPostsOptions{ExcludePrivate: true, OrderBy: services.OrderTop}
	if raw := c.Query("author"); raw != "" {
		authorID, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid author", "code": "INVALID_ID"})
			return
		}
		opts.AuthorID = authorID
	}
	if c.Query("order") == services.OrderNewest {
		opts.OrderBy = services.OrderNewest
	}
	h.list(c, opts)
}

// GetPostsByTag lists root posts carrying a hashtag
func (h *PostHandler) GetPostsByTag(c *gin.Context) {
	h.list(c, services.ListPostsOptions{
		Tag:            c.Param("name"),
		ExcludePrivate: true,
		OrderBy:        services.OrderNewest,
	})
}

func (h *PostHandler) list(c *gin.Context, opts services.ListPostsOptions) {
	page := h.pager.page(c)
	posts, total, err := h.content.ListPosts(c.Request.Context(), opts, page)
	if err != nil {
		respondError(c, err)
		return
	}
	h.pager.respond(c, page, total, postSummaries(posts))
}

// readablePost loads an active post and checks the caller may read its community.
func (h *PostHandler) readablePost(c *gin.Context) (*models.Post, bool) {
	return h.loadReadable(c, false)
}

// loadReadable is readablePost that can also return deactivated posts,
// which stay reachable by id.
func (h *PostHandler) loadReadable(c *gin.Context, includeInactive bool) (*models.Post, bool) {
	postID, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	post, err := h.content.Get(c.Request.Context(), postID)
	if err == nil && !post.IsActive && !includeInactive {
		err = services.ErrPostNotFound
	}
	if err == nil && post.Community == nil {
		err = services.ErrCommunityNotFound
	}
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	userID, _ := extractUserID(c)
	readable, err := h.communities.CanRead(c.Request.Context(), post.Community, userID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if !readable {
		respondError(c, services.ErrPrivateCommunity)
		return nil, false
	}
	return post, true
}

// GetPost returns a single post with its rendered body and thread size.
// Deactivated posts are returned with is_active false.
func (h *PostHandler) GetPost(c *gin.Context) {
	post, ok := h.loadReadable(c, true)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if post.IsActive {
		if err := h.content.IncrementDisplay(ctx, post.ID); err != nil {
			logger.Log.WithError(err).WithField("post_id", post.ID).Warn("increment display counter")
		} else {
			post.DisplayCounter++
		}
	}

	children, err := h.content.ChildrenCount(ctx, post.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := postJSON(post)
	resp["body_html"] = render.Markdown(post.Body)
	resp["children_count"] = children

	if userID, ok := extractUserID(c); ok {
		choice, err := h.votes.UserVote(ctx, post.ID, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		saved, err := h.saved.IsSaved(ctx, userID, post.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		resp["user_vote"] = choice
		resp["is_saved"] = saved
	}

	c.JSON(http.StatusOK, resp)
}

// UpdatePost edits title and body (PROTECTED - requires ownership)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.UpdatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.content.Edit(ctx, postID, userID, input.Title, input.Body, input.Version); err != nil {
		respondError(c, err)
		return
	}
	post, err := h.content.Get(ctx, postID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, postJSON(post))
}

// DeletePost soft deletes a post (PROTECTED - requires ownership)
func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.content.Delete(c.Request.Context(), postID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// VotePost records or changes the caller's vote (PROTECTED - requires authentication)
func (h *PostHandler) VotePost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	post, err := h.votes.Vote(c.Request.Context(), postID, userID, input.Choice)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, voteJSON(post, input.Choice))
}

// UnvotePost removes the caller's vote (PROTECTED - requires authentication)
func (h *PostHandler) UnvotePost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	post, err := h.votes.Unvote(c.Request.Context(), postID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, voteJSON(post, ""))
}

func voteJSON(p *models.Post, choice string) gin.H {
	return gin.H{
		"post_id":    p.ID,
		"up_votes":   p.UpVotes,
		"down_votes": p.DownVotes,
		"score":      p.Score(),
		"user_vote":  choice,
	}
}

// SavePost bookmarks a post (PROTECTED - requires authentication)
func (h *PostHandler) SavePost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if _, err := h.saved.Save(c.Request.Context(), userID, postID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Post saved"})
}

// UnsavePost removes a bookmark (PROTECTED - requires authentication)
func (h *PostHandler) UnsavePost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.saved.Unsave(c.Request.Context(), userID, postID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post removed from saved"})
}
