package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/agora/backend/internal/models"
	"github.com/emilythestrangee/agora/backend/internal/services"
)

// Responses are built by hand so that account fields such as email never
// leak through embedded models.

func authorJSON(u *models.User) gin.H {
	if u == nil {
		return nil
	}
	return gin.H{
		"id":           u.ID,
		"username":     u.Username,
		"display_name": u.DisplayName(),
		"avatar":       u.Avatar,
	}
}

func communityRef(c *models.Community) gin.H {
	if c == nil {
		return nil
	}
	m := services.Minimal(c)
	return gin.H{"id": m.ID, "name": m.Name, "slug": m.Slug}
}

func postJSON(p *models.Post) gin.H {
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Name)
	}
	return gin.H{
		"id":              p.ID,
		"title":           p.Title,
		"body":            p.Body,
		"author":          authorJSON(p.Author),
		"author_id":       p.AuthorID,
		"community":       communityRef(p.Community),
		"community_id":    p.CommunityID,
		"parent_id":       p.ParentID,
		"root_id":         p.RootID,
		"up_votes":        p.UpVotes,
		"down_votes":      p.DownVotes,
		"score":           p.Score(),
		"gold":            p.Gold,
		"display_counter": p.DisplayCounter,
		"is_active":       p.IsActive,
		"version":         p.Version,
		"tags":            tags,
		"created_at":      p.CreatedAt,
		"updated_at":      p.UpdatedAt,
	}
}

func postSummaries(posts []models.Post) []gin.H {
	out := make([]gin.H, 0, len(posts))
	for i := range posts {
		out = append(out, postJSON(&posts[i]))
	}
	return out
}

func commentTree(nodes []*services.CommentNode) []gin.H {
	out := make([]gin.H, 0, len(nodes))
	for _, n := range nodes {
		item := gin.H{
			"id":         n.ID,
			"body":       n.Body,
			"author":     authorJSON(n.Author),
			"parent_id":  n.ParentID,
			"up_votes":   n.UpVotes,
			"down_votes": n.DownVotes,
			"score":      n.Score,
			"gold":       n.Gold,
			"version":    n.Version,
			"created_at": n.CreatedAt,
			"children":   commentTree(n.Children),
		}
		out = append(out, item)
	}
	return out
}
