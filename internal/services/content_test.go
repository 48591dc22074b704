package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/agora/backend/internal/apperrors"
	"github.com/emilythestrangee/agora/backend/internal/models"
)

func TestCreatePostSetsVersionAndTags(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)

	post := createPost(t, db, alice, c, "Hello", "first post #go #Gophers #go")

	assert.True(t, post.IsActive)
	assert.True(t, post.IsRoot())
	assert.Equal(t, post.GenerateVersion(), post.Version)
	assert.Equal(t, []string{"go", "gophers"}, tagNames(t, db, post.ID))
}

func TestCreateValidation(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	svc := NewContentService(db)

	_, err := svc.Create(ctx, CreatePostInput{AuthorID: alice.ID, CommunityID: c.ID, Body: "no title"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.Create(ctx, CreatePostInput{AuthorID: alice.ID, CommunityID: c.ID, Title: "t", Body: "  "})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.Create(ctx, CreatePostInput{AuthorID: alice.ID, CommunityID: 999, Title: "t", Body: "b"})
	assert.ErrorIs(t, err, ErrCommunityNotFound)
}

func TestCreateCommentLinksParentAndRoot(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	post := createPost(t, db, alice, c, "Hello", "body")

	reply := createComment(t, db, bob, post, "nice")
	nested := createComment(t, db, alice, reply, "thanks")

	assert.Equal(t, post.ID, *reply.ParentID)
	assert.Equal(t, post.ID, *reply.RootID)
	assert.Equal(t, reply.ID, *nested.ParentID)
	assert.Equal(t, post.ID, *nested.RootID)
	assert.Equal(t, c.ID, nested.CommunityID)
}

func TestCreateRespectsCommunityGate(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	restricted := createCommunity(t, db, alice, "Staff Room", models.PrivacyRestricted)
	svc := NewContentService(db)

	input := CreatePostInput{AuthorID: bob.ID, CommunityID: restricted.ID, Title: "hi", Body: "let me in"}
	_, err := svc.Create(ctx, input)
	assert.ErrorIs(t, err, ErrPrivateCommunity)

	_, err = NewCommunityService(db, 0).Join(ctx, restricted.Slug, bob.ID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, input)
	assert.NoError(t, err)
}

func TestBannedUserCannotPost(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	require.NoError(t, db.Model(alice).UpdateColumn("can_create_post", false).Error)

	_, err := NewContentService(db).Create(ctx, CreatePostInput{AuthorID: alice.ID, CommunityID: c.ID, Title: "t", Body: "b"})
	assert.ErrorIs(t, err, ErrPostingDisabled)
}

func TestSaveRejectsStaleVersion(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	post := createPost(t, db, alice, c, "Hello", "body")
	svc := NewContentService(db)
	original := post.Version

	post.Body = "edited once"
	require.NoError(t, svc.Save(ctx, post, original))
	assert.NotEqual(t, original, post.Version)

	// A second editor still holding the original version.
	stale := reloadPost(t, db, post.ID)
	stale.Body = "edited concurrently"
	err := svc.Save(ctx, stale, original)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, "edited once", reloadPost(t, db, post.ID).Body)
}

func TestSaveRejectsUnchangedContent(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	post := createPost(t, db, alice, c, "Hello", "body")

	err := NewContentService(db).Save(ctx, post, "")
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.NotErrorIs(t, err, ErrVersionConflict)
}

func TestSaveWithoutExpectedVersion(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	post := createPost(t, db, alice, c, "Hello", "body")

	post.Title = "Hello again"
	require.NoError(t, NewContentService(db).Save(ctx, post, ""))
	assert.Equal(t, "Hello again", reloadPost(t, db, post.ID).Title)
}

func TestSaveDiffsTags(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	post := createPost(t, db, alice, c, "Tags", "#a #b")
	require.Equal(t, []string{"a", "b"}, tagNames(t, db, post.ID))

	var before models.Tag
	require.NoError(t, db.Where("post_id = ? AND name = ?", post.ID, "b").First(&before).Error)

	post.Body = "#b #c"
	require.NoError(t, NewContentService(db).Save(ctx, post, post.Version))

	assert.Equal(t, []string{"b", "c"}, tagNames(t, db, post.ID))

	// The surviving tag row is kept, not recreated.
	var after models.Tag
	require.NoError(t, db.Where("post_id = ? AND name = ?", post.ID, "b").First(&after).Error)
	assert.Equal(t, before.ID, after.ID)
}

func TestEditChecksAuthor(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	post := createPost(t, db, alice, c, "Hello", "body")
	svc := NewContentService(db)

	body := "hijacked"
	_, err := svc.Edit(ctx, post.ID, bob.ID, nil, &body, "")
	assert.ErrorIs(t, err, ErrNotAuthor)

	body = "updated #news"
	edited, err := svc.Edit(ctx, post.ID, alice.ID, nil, &body, post.Version)
	require.NoError(t, err)
	assert.Equal(t, "updated #news", edited.Body)
	assert.Equal(t, []string{"news"}, tagNames(t, db, post.ID))
}

func TestChildrenCountIsRecursive(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	post := createPost(t, db, alice, c, "Root", "body")
	svc := NewContentService(db)

	a := createComment(t, db, alice, post, "a")
	b := createComment(t, db, alice, post, "b")
	a1 := createComment(t, db, alice, a, "a1")
	createComment(t, db, alice, a1, "a1x")
	createComment(t, db, alice, b, "b1")

	n, err := svc.ChildrenCount(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = svc.ChildrenCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSoftDeleteHidesFromListings(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	keep := createPost(t, db, alice, c, "Keep", "body")
	gone := createPost(t, db, alice, c, "Gone", "body")
	svc := NewContentService(db)

	require.NoError(t, svc.Delete(ctx, gone.ID, alice.ID))

	posts, total, err := svc.ListPosts(ctx, ListPostsOptions{CommunityID: c.ID}, Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, posts, 1)
	assert.Equal(t, keep.ID, posts[0].ID)

	direct, err := svc.Get(ctx, gone.ID)
	require.NoError(t, err)
	assert.False(t, direct.IsActive)
	assert.Equal(t, direct.GenerateVersion(), direct.Version)
}

func TestListPostsExcludesPrivateAndOrdersByVotes(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	public := createCommunity(t, db, alice, "Public", models.PrivacyPublic)
	private := createCommunity(t, db, alice, "Secret", models.PrivacyPrivate)
	low := createPost(t, db, alice, public, "Low", "body")
	high := createPost(t, db, alice, public, "High", "body #hot")
	createPost(t, db, alice, private, "Hidden", "body")
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", high.ID).UpdateColumn("up_votes", 5).Error)

	svc := NewContentService(db)
	posts, total, err := svc.ListPosts(ctx, ListPostsOptions{ExcludePrivate: true, OrderBy: OrderTop}, Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, posts, 2)
	assert.Equal(t, high.ID, posts[0].ID)
	assert.Equal(t, low.ID, posts[1].ID)

	tagged, _, err := svc.ListPosts(ctx, ListPostsOptions{Tag: "HOT"}, Page{})
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, high.ID, tagged[0].ID)
}

func TestListPostsByUnicodeTag(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	c := createCommunity(t, db, alice, "Cafes", models.PrivacyPublic)
	post := createPost(t, db, alice, c, "Menu", "new #Café in town")
	createPost(t, db, alice, c, "Other", "#caf")
	svc := NewContentService(db)

	tagged, total, err := svc.ListPosts(ctx, ListPostsOptions{Tag: "CAFÉ"}, Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, tagged, 1)
	assert.Equal(t, post.ID, tagged[0].ID)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = svc.ListPosts(cancelled, ListPostsOptions{Tag: "café"}, Page{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThreadBuildsNestedTree(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	post := createPost(t, db, alice, c, "Root", "body")
	svc := NewContentService(db)

	a := createComment(t, db, alice, post, "a")
	createComment(t, db, alice, a, "a1")
	b := createComment(t, db, alice, post, "b")
	createComment(t, db, alice, b, "b1")
	require.NoError(t, svc.Delete(ctx, b.ID, alice.ID))

	tree, err := svc.Thread(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "a", tree[0].Body)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "a1", tree[0].Children[0].Body)
}

func TestIncrementDisplayKeepsVersion(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	post := createPost(t, db, alice, c, "Root", "body")
	svc := NewContentService(db)

	require.NoError(t, svc.IncrementDisplay(ctx, post.ID))
	require.NoError(t, svc.IncrementDisplay(ctx, post.ID))

	stored := reloadPost(t, db, post.ID)
	assert.Equal(t, 2, stored.DisplayCounter)
	assert.Equal(t, post.Version, stored.Version)
}

func TestExtractTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ExtractTags("#b then #a and #b"))
	assert.Empty(t, ExtractTags("no tags # here"))
	assert.Equal(t, []string{"café"}, ExtractTags("#Café au lait"))
	assert.Equal(t, []string{"go_1", "zażółć"}, ExtractTags("#zażółć, #Go_1!"))
	assert.Equal(t, []string{"東京"}, ExtractTags("trip to #東京."))
}
