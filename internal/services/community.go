package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/agora/backend/internal/apperrors"
	"github.com/emilythestrangee/agora/backend/internal/models"
	"github.com/emilythestrangee/agora/backend/internal/slug"
)

const maxSlugAttempts = 3

type CommunityService struct {
	db          *gorm.DB
	onlineLimit time.Duration
	now         func() time.Time
}

func NewCommunityService(db *gorm.DB, onlineLimit time.Duration) *CommunityService {
	return &CommunityService{db: db, onlineLimit: onlineLimit, now: time.Now}
}

// CommunityView is either a MinimalCommunityView or a FullCommunityView.
type CommunityView interface {
	communityView()
}

type MinimalCommunityView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type FullCommunityView struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	Description      string    `json:"description"`
	Privacy          string    `json:"privacy"`
	Is18Plus         bool      `json:"is_18_plus"`
	AuthorID         *int      `json:"author_id"`
	MemberCount      int64     `json:"member_count"`
	CountOnlineUsers int64     `json:"count_online_users"`
	CreatedAt        time.Time `json:"created_at"`
}

func (MinimalCommunityView) communityView() {}
func (FullCommunityView) communityView()    {}

func Minimal(c *models.Community) MinimalCommunityView {
	return MinimalCommunityView{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

// Create validates the request, assigns a unique slug and stores the community.
func (s *CommunityService) Create(ctx context.Context, authorID int, req models.CreateCommunityRequest) (*models.Community, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validation("INVALID_NAME", "Community name is required")
	}
	privacy := req.Privacy
	if privacy == "" {
		privacy = models.PrivacyPublic
	}
	if !models.ValidPrivacy(privacy) {
		return nil, apperrors.Validation("INVALID_PRIVACY", "Unknown privacy tier", map[string]string{"privacy": privacy})
	}

	community := &models.Community{
		Name:        name,
		Description: req.Description,
		AuthorID:    &authorID,
		Privacy:     privacy,
		Is18Plus:    req.Is18Plus,
		IsActive:    true,
	}

	// Two concurrent creates can pick the same slug; the unique index
	// rejects the loser, which then retries with the next suffix.
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			sl, err := uniqueSlug(tx, name, 0)
			if err != nil {
				return err
			}
			community.ID = 0
			community.Slug = sl
			return tx.Create(community).Error
		})
		if err == nil {
			return community, nil
		}
		if !apperrors.IsDuplicate(err) {
			return nil, errors.Wrap(err, "create community")
		}
	}
	return nil, ErrSlugExhausted
}

// uniqueSlug slugifies name and appends -1, -2, ... until no other
// community (other than excludeID) holds the slug, ignoring case.
func uniqueSlug(tx *gorm.DB, name string, excludeID int) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "community"
	}

	candidate := base
	for n := 1; ; n++ {
		var count int64
		err := tx.Model(&models.Community{}).
			Where("LOWER(slug) = LOWER(?) AND id <> ?", candidate, excludeID).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *CommunityService) GetBySlug(ctx context.Context, sl string) (*models.Community, error) {
	return findCommunity(s.db.WithContext(ctx), sl)
}

func findCommunity(tx *gorm.DB, sl string) (*models.Community, error) {
	var c models.Community
	err := tx.Where("slug = ? AND is_active = ?", sl, true).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommunityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Update changes the editable fields. The slug is kept.
func (s *CommunityService) Update(ctx context.Context, sl string, actorID int, req models.UpdateCommunityRequest) (*models.Community, error) {
	var community *models.Community
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := findCommunity(tx, sl)
		if err != nil {
			return err
		}
		if err := requireAdminOrModerator(tx, c, actorID); err != nil {
			return err
		}

		updates := map[string]any{}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return validation("INVALID_NAME", "Community name is required")
			}
			updates["name"] = name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.Privacy != nil {
			if !models.ValidPrivacy(*req.Privacy) {
				return apperrors.Validation("INVALID_PRIVACY", "Unknown privacy tier", map[string]string{"privacy": *req.Privacy})
			}
			updates["privacy"] = *req.Privacy
		}
		if req.Is18Plus != nil {
			updates["is_18_plus"] = *req.Is18Plus
		}
		if len(updates) > 0 {
			if err := tx.Model(c).Updates(updates).Error; err != nil {
				return err
			}
		}
		community = c
		return tx.First(community, c.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return community, nil
}

// RegenerateSlug derives a fresh slug from the current name.
func (s *CommunityService) RegenerateSlug(ctx context.Context, sl string, actorID int) (*models.Community, error) {
	var community *models.Community
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := findCommunity(tx, sl)
		if err != nil {
			return err
		}
		if err := requireAdminOrModerator(tx, c, actorID); err != nil {
			return err
		}
		fresh, err := uniqueSlug(tx, c.Name, c.ID)
		if err != nil {
			return err
		}
		if err := tx.Model(c).Update("slug", fresh).Error; err != nil {
			return err
		}
		c.Slug = fresh
		community = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return community, nil
}

// IsAdminOrModerator is true for the author and for ADMIN or MODERATOR members.
func (s *CommunityService) IsAdminOrModerator(ctx context.Context, c *models.Community, userID int) (bool, error) {
	return isAdminOrModerator(s.db.WithContext(ctx), c, userID)
}

func isAdminOrModerator(tx *gorm.DB, c *models.Community, userID int) (bool, error) {
	if c.IsAuthor(userID) {
		return true, nil
	}
	var count int64
	err := tx.Model(&models.CommunityMember{}).
		Where("community_id = ? AND user_id = ? AND role IN ?", c.ID, userID, []string{models.RoleAdmin, models.RoleModerator}).
		Count(&count).Error
	return count > 0, err
}

func requireAdminOrModerator(tx *gorm.DB, c *models.Community, userID int) error {
	ok, err := isAdminOrModerator(tx, c, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotCommunityAdmin
	}
	return nil
}

// hasAccess is the author-or-member gate.
func hasAccess(tx *gorm.DB, c *models.Community, userID int) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	if c.IsAuthor(userID) {
		return true, nil
	}
	var count int64
	err := tx.Model(&models.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", c.ID, userID).
		Count(&count).Error
	return count > 0, err
}

// canRead: PUBLIC and RESTRICTED are open, PRIVATE is gated.
func canRead(tx *gorm.DB, c *models.Community, userID int) (bool, error) {
	if !c.IsPrivate() {
		return true, nil
	}
	return hasAccess(tx, c, userID)
}

// canWrite: PUBLIC is open, RESTRICTED and PRIVATE are gated.
func canWrite(tx *gorm.DB, c *models.Community, userID int) (bool, error) {
	if c.Privacy == models.PrivacyPublic {
		return userID != 0, nil
	}
	return hasAccess(tx, c, userID)
}

func (s *CommunityService) CanRead(ctx context.Context, c *models.Community, userID int) (bool, error) {
	return canRead(s.db.WithContext(ctx), c, userID)
}

func (s *CommunityService) CanWrite(ctx context.Context, c *models.Community, userID int) (bool, error) {
	return canWrite(s.db.WithContext(ctx), c, userID)
}

// ViewFor returns the full view to anyone who may read the community and
// the minimal one otherwise. userID 0 means anonymous.
func (s *CommunityService) ViewFor(ctx context.Context, c *models.Community, userID int) (CommunityView, error) {
	db := s.db.WithContext(ctx)
	ok, err := canRead(db, c, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Minimal(c), nil
	}

	view := FullCommunityView{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Privacy:     c.Privacy,
		Is18Plus:    c.Is18Plus,
		AuthorID:    c.AuthorID,
		CreatedAt:   c.CreatedAt,
	}
	if err := db.Model(&models.CommunityMember{}).Where("community_id = ?", c.ID).Count(&view.MemberCount).Error; err != nil {
		return nil, err
	}
	since := s.now().UTC().Add(-s.onlineLimit)
	err = db.Model(&models.CommunityMember{}).
		Joins("JOIN users ON users.id = community_members.user_id").
		Where("community_members.community_id = ? AND users.last_activity >= ?", c.ID, since).
		Count(&view.CountOnlineUsers).Error
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ListVisible lists active non-private communities ordered by name.
func (s *CommunityService) ListVisible(ctx context.Context, page Page) ([]models.Community, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Community{}).
		Where("is_active = ? AND privacy <> ?", true, models.PrivacyPrivate)

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var communities []models.Community
	if err := q.Scopes(page.scope).Order("name").Order("id").Find(&communities).Error; err != nil {
		return nil, 0, err
	}
	return communities, total, nil
}

// Join adds the user as MEMBER. Private communities are joined by invitation only.
func (s *CommunityService) Join(ctx context.Context, sl string, userID int) (*models.CommunityMember, error) {
	var member *models.CommunityMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := findCommunity(tx, sl)
		if err != nil {
			return err
		}
		if c.IsPrivate() {
			return ErrPrivateCommunity
		}
		member, err = createMember(tx, c.ID, userID, models.RoleMember)
		return err
	})
	return member, err
}

func (s *CommunityService) Leave(ctx context.Context, sl string, userID int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := findCommunity(tx, sl)
		if err != nil {
			return err
		}
		res := tx.Where("community_id = ? AND user_id = ?", c.ID, userID).Delete(&models.CommunityMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotMember
		}
		return nil
	})
}

// AddMember lets an admin or moderator add a user, including to private communities.
func (s *CommunityService) AddMember(ctx context.Context, sl string, actorID, userID int) (*models.CommunityMember, error) {
	var member *models.CommunityMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := findCommunity(tx, sl)
		if err != nil {
			return err
		}
		if err := requireAdminOrModerator(tx, c, actorID); err != nil {
			return err
		}
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		member, err = createMember(tx, c.ID, userID, models.RoleMember)
		return err
	})
	return member, err
}

func createMember(tx *gorm.DB, communityID, userID int, role string) (*models.CommunityMember, error) {
	if !models.ValidRole(role) {
		return nil, apperrors.Validation("INVALID_ROLE", "Unknown community role", map[string]string{"role": role})
	}
	member := &models.CommunityMember{CommunityID: communityID, UserID: userID, Role: role}
	if err := tx.Create(member).Error; err != nil {
		if apperrors.IsDuplicate(err) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}
	return member, nil
}

// AddModerator creates or updates the membership with role MODERATOR.
func (s *CommunityService) AddModerator(ctx context.Context, sl string, actorID, userID int) (*models.CommunityMember, error) {
	var member models.CommunityMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := findCommunity(tx, sl)
		if err != nil {
			return err
		}
		if err := requireAdminOrModerator(tx, c, actorID); err != nil {
			return err
		}
		if err := requireUser(tx, userID); err != nil {
			return err
		}

		upsert := models.CommunityMember{CommunityID: c.ID, UserID: userID, Role: models.RoleModerator}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).Create(&upsert).Error
		if err != nil {
			return err
		}
		return tx.Where("community_id = ? AND user_id = ?", c.ID, userID).First(&member).Error
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveModerator deletes the membership only when its role is MODERATOR.
func (s *CommunityService) RemoveModerator(ctx context.Context, sl string, actorID, userID int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := findCommunity(tx, sl)
		if err != nil {
			return err
		}
		if err := requireAdminOrModerator(tx, c, actorID); err != nil {
			return err
		}
		res := tx.Where("community_id = ? AND user_id = ? AND role = ?", c.ID, userID, models.RoleModerator).
			Delete(&models.CommunityMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotModerator
		}
		return nil
	})
}

func (s *CommunityService) Members(ctx context.Context, c *models.Community, page Page) ([]models.CommunityMember, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.CommunityMember{}).Where("community_id = ?", c.ID)

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var members []models.CommunityMember
	err := q.Scopes(page.scope).Preload("User.Profile").Order("id").Find(&members).Error
	return members, total, err
}

func requireUser(tx *gorm.DB, userID int) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}
