package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/agora/backend/internal/models"
)

func TestCreateCommunityAssignsUniqueSlugs(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")

	first := createCommunity(t, db, alice, "Test Community", models.PrivacyPublic)
	second := createCommunity(t, db, alice, "Test Community", models.PrivacyPublic)
	third := createCommunity(t, db, alice, "test COMMUNITY", models.PrivacyPublic)

	assert.Equal(t, "test-community", first.Slug)
	assert.Equal(t, "test-community-1", second.Slug)
	assert.Equal(t, "test-community-2", third.Slug)
}

func TestCreateCommunityValidation(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	svc := NewCommunityService(db, 0)

	_, err := svc.Create(ctx, alice.ID, models.CreateCommunityRequest{Name: "  "})
	assert.Error(t, err)

	_, err = svc.Create(ctx, alice.ID, models.CreateCommunityRequest{Name: "Gophers", Privacy: "99_SECRET"})
	assert.Error(t, err)

	c, err := svc.Create(ctx, alice.ID, models.CreateCommunityRequest{Name: "Gophers"})
	require.NoError(t, err)
	assert.Equal(t, models.PrivacyPublic, c.Privacy)
}

func TestModeratorLifecycle(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	svc := NewCommunityService(db, 0)

	ok, err := svc.IsAdminOrModerator(ctx, c, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok, "author counts as admin")

	ok, err = svc.IsAdminOrModerator(ctx, c, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.AddModerator(ctx, c.Slug, bob.ID, carol.ID)
	assert.ErrorIs(t, err, ErrNotCommunityAdmin)

	_, err = svc.Join(ctx, c.Slug, bob.ID)
	require.NoError(t, err)
	member, err := svc.AddModerator(ctx, c.Slug, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, member.Role)

	var rows int64
	require.NoError(t, db.Model(&models.CommunityMember{}).Where("community_id = ? AND user_id = ?", c.ID, bob.ID).Count(&rows).Error)
	assert.EqualValues(t, 1, rows, "promotion updates the existing membership")

	ok, err = svc.IsAdminOrModerator(ctx, c, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.RemoveModerator(ctx, c.Slug, alice.ID, bob.ID))
	ok, err = svc.IsAdminOrModerator(ctx, c, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveModeratorLeavesAdmins(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	require.NoError(t, db.Create(&models.CommunityMember{CommunityID: c.ID, UserID: bob.ID, Role: models.RoleAdmin}).Error)

	err := NewCommunityService(db, 0).RemoveModerator(ctx, c.Slug, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotModerator)

	var m models.CommunityMember
	require.NoError(t, db.Where("community_id = ? AND user_id = ?", c.ID, bob.ID).First(&m).Error)
	assert.Equal(t, models.RoleAdmin, m.Role)
}

func TestViewFor(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")
	private := createCommunity(t, db, alice, "Secret", models.PrivacyPrivate)

	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	svc := NewCommunityService(db, 5*time.Minute)
	svc.now = func() time.Time { return now }

	_, err := svc.AddMember(ctx, private.Slug, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, private.Slug, alice.ID, carol.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", bob.ID).UpdateColumn("last_activity", now.Add(-time.Minute)).Error)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", carol.ID).UpdateColumn("last_activity", now.Add(-time.Hour)).Error)

	outsider := createUser(t, db, "dave")
	view, err := svc.ViewFor(ctx, private, outsider.ID)
	require.NoError(t, err)
	assert.Equal(t, MinimalCommunityView{ID: private.ID, Name: "Secret", Slug: private.Slug}, view)

	view, err = svc.ViewFor(ctx, private, 0)
	require.NoError(t, err)
	assert.IsType(t, MinimalCommunityView{}, view)

	view, err = svc.ViewFor(ctx, private, bob.ID)
	require.NoError(t, err)
	full, ok := view.(FullCommunityView)
	require.True(t, ok)
	assert.EqualValues(t, 2, full.MemberCount)
	assert.EqualValues(t, 1, full.CountOnlineUsers)
	assert.Equal(t, models.PrivacyPrivate, full.Privacy)

	public := createCommunity(t, db, alice, "Open", models.PrivacyPublic)
	view, err = svc.ViewFor(ctx, public, 0)
	require.NoError(t, err)
	assert.IsType(t, FullCommunityView{}, view)
}

func TestJoinAndLeave(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	public := createCommunity(t, db, alice, "Open", models.PrivacyPublic)
	private := createCommunity(t, db, alice, "Secret", models.PrivacyPrivate)
	svc := NewCommunityService(db, 0)

	_, err := svc.Join(ctx, private.Slug, bob.ID)
	assert.ErrorIs(t, err, ErrPrivateCommunity)

	_, err = svc.Join(ctx, public.Slug, bob.ID)
	require.NoError(t, err)
	_, err = svc.Join(ctx, public.Slug, bob.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	require.NoError(t, svc.Leave(ctx, public.Slug, bob.ID))
	assert.ErrorIs(t, svc.Leave(ctx, public.Slug, bob.ID), ErrNotMember)

	_, err = svc.Join(ctx, "missing", bob.ID)
	assert.ErrorIs(t, err, ErrCommunityNotFound)
}

func TestAccessRules(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	svc := NewCommunityService(db, 0)

	cases := []struct {
		privacy  string
		canRead  bool
		canWrite bool
	}{
		{models.PrivacyPublic, true, true},
		{models.PrivacyRestricted, true, false},
		{models.PrivacyPrivate, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.privacy, func(t *testing.T) {
			c := createCommunity(t, db, alice, "Tier "+tc.privacy, tc.privacy)

			read, err := svc.CanRead(ctx, c, bob.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.canRead, read)

			write, err := svc.CanWrite(ctx, c, bob.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.canWrite, write)

			write, err = svc.CanWrite(ctx, c, alice.ID)
			require.NoError(t, err)
			assert.True(t, write, "author can always write")
		})
	}
}

func TestListVisibleSkipsPrivate(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	createCommunity(t, db, alice, "Zeta", models.PrivacyPublic)
	createCommunity(t, db, alice, "Alpha", models.PrivacyRestricted)
	createCommunity(t, db, alice, "Hidden", models.PrivacyPrivate)

	list, total, err := NewCommunityService(db, 0).ListVisible(ctx, Page{Number: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Equal(t, "Zeta", list[1].Name)
}

func TestUpdateAndRegenerateSlug(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	c := createCommunity(t, db, alice, "Gophers", models.PrivacyPublic)
	svc := NewCommunityService(db, 0)

	name := "Rustaceans"
	_, err := svc.Update(ctx, c.Slug, bob.ID, models.UpdateCommunityRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotCommunityAdmin)

	updated, err := svc.Update(ctx, c.Slug, alice.ID, models.UpdateCommunityRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Rustaceans", updated.Name)
	assert.Equal(t, "gophers", updated.Slug)

	regenerated, err := svc.RegenerateSlug(ctx, "gophers", alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "rustaceans", regenerated.Slug)

	_, err = svc.GetBySlug(ctx, "gophers")
	assert.ErrorIs(t, err, ErrCommunityNotFound)
}
