package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/agora/backend/internal/database/dbtest"
	"github.com/emilythestrangee/agora/backend/internal/models"
)

var ctx = context.Background()

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.New(t)
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		Username:      name,
		Email:         fmt.Sprintf("%s@example.com", name),
		Password:      "x",
		IsActive:      true,
		CanCreatePost: true,
	}
	require.NoError(t, db.Create(user).Error)
	user.Profile = &models.Profile{UserID: user.ID, Nickname: name}
	require.NoError(t, db.Create(user.Profile).Error)
	return user
}

func createStaff(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := createUser(t, db, name)
	require.NoError(t, db.Model(user).UpdateColumn("is_staff", true).Error)
	user.IsStaff = true
	return user
}

func createCommunity(t *testing.T, db *gorm.DB, author *models.User, name, privacy string) *models.Community {
	t.Helper()
	c, err := NewCommunityService(db, 0).Create(ctx, author.ID, models.CreateCommunityRequest{Name: name, Privacy: privacy})
	require.NoError(t, err)
	return c
}

func createPost(t *testing.T, db *gorm.DB, author *models.User, c *models.Community, title, body string) *models.Post {
	t.Helper()
	p, err := NewContentService(db).Create(ctx, CreatePostInput{
		AuthorID:    author.ID,
		CommunityID: c.ID,
		Title:       title,
		Body:        body,
	})
	require.NoError(t, err)
	return p
}

func createComment(t *testing.T, db *gorm.DB, author *models.User, parent *models.Post, body string) *models.Post {
	t.Helper()
	p, err := NewContentService(db).Create(ctx, CreatePostInput{
		AuthorID: author.ID,
		ParentID: &parent.ID,
		Body:     body,
	})
	require.NoError(t, err)
	return p
}

func reloadPost(t *testing.T, db *gorm.DB, id int) *models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, db.First(&p, id).Error)
	return &p
}

func reloadProfile(t *testing.T, db *gorm.DB, userID int) *models.Profile {
	t.Helper()
	var p models.Profile
	require.NoError(t, db.Where("user_id = ?", userID).First(&p).Error)
	return &p
}

func tagNames(t *testing.T, db *gorm.DB, postID int) []string {
	t.Helper()
	var names []string
	require.NoError(t, db.Model(&models.Tag{}).Where("post_id = ?", postID).Order("name").Pluck("name", &names).Error)
	return names
}
