package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/agora/backend/internal/models"
	"github.com/emilythestrangee/agora/backend/internal/services"
)

type CommunityHandler struct {
	communities *services.CommunityService
	content     *services.ContentService
	pager       pager
}

func NewCommunityHandler(communities *services.CommunityService, content *services.ContentService, p pager) *CommunityHandler {
	return &CommunityHandler{communities: communities, content: content, pager: p}
}

func communityJSON(c *models.Community) gin.H {
	return gin.H{
		"id":          c.ID,
		"name":        c.Name,
		"slug":        c.Slug,
		"description": c.Description,
		"privacy":     c.Privacy,
		"is_18_plus":  c.Is18Plus,
		"author_id":   c.AuthorID,
		"created_at":  c.CreatedAt,
	}
}

func memberJSON(m *models.CommunityMember) gin.H {
	return gin.H{
		"user":      authorJSON(m.User),
		"user_id":   m.UserID,
		"role":      m.Role,
		"joined_at": m.CreatedAt,
	}
}

// GetCommunities lists public and restricted communities by name
func (h *CommunityHandler) GetCommunities(c *gin.Context) {
	page := h.pager.page(c)
	list, total, err := h.communities.ListVisible(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]gin.H, 0, len(list))
	for i := range list {
		results = append(results, communityJSON(&list[i]))
	}
	h.pager.respond(c, page, total, results)
}

// GetCommunity returns the full view to readers and the minimal one otherwise
func (h *CommunityHandler) GetCommunity(c *gin.Context) {
	community, err := h.communities.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	userID, _ := extractUserID(c)
	view, err := h.communities.ViewFor(c.Request.Context(), community, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// readable loads the community and answers 403 for private ones the caller cannot see.
func (h *CommunityHandler) readable(c *gin.Context) (*models.Community, bool) {
	ctx := c.Request.Context()
	community, err := h.communities.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	userID, _ := extractUserID(c)
	ok, err := h.communities.CanRead(ctx, community, userID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if !ok {
		respondError(c, services.ErrPrivateCommunity)
		return nil, false
	}
	return community, true
}

// GetCommunityPosts lists the community's root posts, newest first
func (h *CommunityHandler) GetCommunityPosts(c *gin.Context) {
	community, ok := h.readable(c)
	if !ok {
		return
	}

	opts := services.ListPostsOptions{CommunityID: community.ID, OrderBy: services.OrderNewest}
	if c.Query("order") == services.OrderTop {
		opts.OrderBy = services.OrderTop
	}
	page := h.pager.page(c)
	posts, total, err := h.content.ListPosts(c.Request.Context(), opts, page)
	if err != nil {
		respondError(c, err)
		return
	}
	h.pager.respond(c, page, total, postSummaries(posts))
}

// GetMembers lists the community's members
func (h *CommunityHandler) GetMembers(c *gin.Context) {
	community, ok := h.readable(c)
	if !ok {
		return
	}

	page := h.pager.page(c)
	members, total, err := h.communities.Members(c.Request.Context(), community, page)
	if err != nil {
		respondError(c, err)
		return
	}
	results := make([]gin.H, 0, len(members))
	for i := range members {
		results = append(results, memberJSON(&members[i]))
	}
	h.pager.respond(c, page, total, results)
}

// CreateCommunity creates a community owned by the caller (PROTECTED - requires authentication)
func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var input models.CreateCommunityRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	community, err := h.communities.Create(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, communityJSON(community))
}

// UpdateCommunity changes name, description, privacy or the 18+ flag (PROTECTED - admins and moderators)
func (h *CommunityHandler) UpdateCommunity(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var input models.UpdateCommunityRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	community, err := h.communities.Update(c.Request.Context(), c.Param("slug"), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, communityJSON(community))
}

// RegenerateSlug derives a new slug from the current name (PROTECTED - admins and moderators)
func (h *CommunityHandler) RegenerateSlug(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	community, err := h.communities.RegenerateSlug(c.Request.Context(), c.Param("slug"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, communityJSON(community))
}

// JoinCommunity adds the caller as a member (PROTECTED - requires authentication)
func (h *CommunityHandler) JoinCommunity(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	member, err := h.communities.Join(c.Request.Context(), c.Param("slug"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, memberJSON(member))
}

// LeaveCommunity removes the caller's membership (PROTECTED - requires authentication)
func (h *CommunityHandler) LeaveCommunity(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.communities.Leave(c.Request.Context(), c.Param("slug"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left community"})
}

// AddMember adds a user to the community (PROTECTED - admins and moderators)
func (h *CommunityHandler) AddMember(c *gin.Context) {
	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	member, err := h.communities.AddMember(c.Request.Context(), c.Param("slug"), actorID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, memberJSON(member))
}

// AddModerator promotes a user to moderator (PROTECTED - admins and moderators)
func (h *CommunityHandler) AddModerator(c *gin.Context) {
	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	member, err := h.communities.AddModerator(c.Request.Context(), c.Param("slug"), actorID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, memberJSON(member))
}

// RemoveModerator deletes a moderator's membership (PROTECTED - admins and moderators)
func (h *CommunityHandler) RemoveModerator(c *gin.Context) {
	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	if err := h.communities.RemoveModerator(c.Request.Context(), c.Param("slug"), actorID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Moderator removed"})
}

// CreatePost creates a root post in the community (PROTECTED - requires authentication)
func (h *CommunityHandler) CreatePost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	ctx := c.Request.Context()

	community, err := h.communities.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	post, err := h.content.Create(ctx, services.CreatePostInput{
		AuthorID:    userID,
		CommunityID: community.ID,
		Title:       input.Title,
		Body:        input.Body,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	// Reload with author, community and tags
	if full, err := h.content.Get(ctx, post.ID); err == nil {
		post = full
	}
	c.JSON(http.StatusCreated, postJSON(post))
}
