package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/agora/backend/internal/apperrors"
	"github.com/emilythestrangee/agora/backend/internal/logger"
	"github.com/emilythestrangee/agora/backend/internal/models"
	"github.com/emilythestrangee/agora/backend/internal/notify"
)

type ModerationService struct {
	db            *gorm.DB
	outbox        *notify.Outbox
	limitWarnings int
}

func NewModerationService(db *gorm.DB, outbox *notify.Outbox, limitWarnings int) *ModerationService {
	return &ModerationService{db: db, outbox: outbox, limitWarnings: limitWarnings}
}

// Report files an unverified report against a post.
func (s *ModerationService) Report(ctx context.Context, postID, reporterID int, req models.CreateReportRequest) (*models.PostReport, error) {
	if !models.ValidReportType(req.ReportType) {
		return nil, apperrors.Validation("INVALID_REPORT_TYPE", "Unknown report type", map[string]any{"allowed": models.ReportTypes})
	}

	report := &models.PostReport{
		PostID:     postID,
		ReporterID: &reporterID,
		ReportType: req.ReportType,
		Details:    strings.TrimSpace(req.Details),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		if err := requireReadable(tx, post.CommunityID, reporterID); err != nil {
			return err
		}
		return tx.Create(report).Error
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Queue lists unverified reports, oldest first. Staff only.
func (s *ModerationService) Queue(ctx context.Context, staff *models.User, page Page) ([]models.PostReport, int64, error) {
	if !isStaff(staff) {
		return nil, 0, ErrStaffOnly
	}
	q := s.db.WithContext(ctx).Model(&models.PostReport{}).Where("verified = ?", false).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reports []models.PostReport
	err := q.Scopes(page.scope).
		Preload("Post.Author").
		Preload("Reporter").
		Order("created_at").Order("id").
		Find(&reports).Error
	return reports, total, err
}

// Detail loads a report and its action history. Staff only.
func (s *ModerationService) Detail(ctx context.Context, staff *models.User, reportID int) (*models.PostReport, []models.AdminAction, error) {
	if !isStaff(staff) {
		return nil, nil, ErrStaffOnly
	}
	db := s.db.WithContext(ctx)

	var report models.PostReport
	err := db.Preload("Post.Author").Preload("Reporter").First(&report, reportID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrReportNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var actions []models.AdminAction
	if err := db.Where("report_id = ?", reportID).Preload("Staff").Order("id").Find(&actions).Error; err != nil {
		return nil, nil, err
	}
	return &report, actions, nil
}

// ActionResult describes what a moderation action did.
type ActionResult struct {
	Report          *models.PostReport  `json:"report"`
	AdminAction     *models.AdminAction `json:"admin_action"`
	PostDeactivated bool                `json:"post_deactivated"`
	Notified        []string            `json:"notified"`
	Message         string              `json:"message"`
}

// HandleAdminAction applies a staff decision to an unverified report.
// The audit row is written first, then the action's effects, all in one
// transaction together with the queued notifications.
func (s *ModerationService) HandleAdminAction(ctx context.Context, staff *models.User, reportID int, action, comment string) (*ActionResult, error) {
	if !isStaff(staff) {
		return nil, ErrStaffOnly
	}
	if !models.ValidAdminAction(action) {
		return nil, apperrors.Validation("INVALID_ACTION", "Unknown moderation action", map[string]string{"action": action})
	}

	result := &ActionResult{Notified: []string{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report models.PostReport
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&report, reportID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReportNotFound
		}
		if err != nil {
			return err
		}
		if report.Verified {
			return ErrReportHandled
		}

		var post models.Post
		if err := tx.First(&post, report.PostID).Error; err != nil {
			return err
		}
		var target *models.User
		if post.AuthorID != nil {
			var u models.User
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, *post.AuthorID).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err == nil {
				target = &u
			}
		}

		audit := &models.AdminAction{
			ReportID: report.ID,
			Action:   action,
			Comment:  strings.TrimSpace(comment),
			StaffID:  &staff.ID,
		}
		if target != nil {
			audit.TargetUserID = &target.ID
		}
		if err := tx.Create(audit).Error; err != nil {
			return err
		}

		if err := tx.Model(&report).UpdateColumn("verified", true).Error; err != nil {
			return err
		}
		report.Verified = true

		notice := notify.Message{}
		switch action {
		case models.ActionBan:
			if target != nil {
				if err := tx.Model(target).UpdateColumn("can_create_post", false).Error; err != nil {
					return err
				}
			}
			if result.PostDeactivated, err = deactivatePost(tx, post.ID); err != nil {
				return err
			}
			notice = notify.AccountBanned
			result.Message = "User has been banned successfully."

		case models.ActionDelete:
			if result.PostDeactivated, err = deactivatePost(tx, post.ID); err != nil {
				return err
			}
			notice = notify.PostDeleted
			result.Message = "Post has been deleted successfully."

		case models.ActionWarn:
			if target == nil {
				result.Message = "Report has been verified."
				break
			}
			err := tx.Model(target).UpdateColumn("warnings", gorm.Expr("warnings + ?", 1)).Error
			if err != nil {
				return err
			}
			if err := tx.First(target, target.ID).Error; err != nil {
				return err
			}
			warnings := target.Warnings
			audit.WarningsAfter = &warnings
			if err := tx.Model(audit).UpdateColumn("warnings_after", warnings).Error; err != nil {
				return err
			}

			if warnings >= s.limitWarnings {
				if result.PostDeactivated, err = deactivatePost(tx, post.ID); err != nil {
					return err
				}
				notice = notify.PostDeleted
				result.Message = "Post has been deleted successfully."
			} else {
				notice = notify.WarningIssued
				result.Message = "User has been warned successfully."
			}

		case models.ActionDismissReport:
			result.Message = "Report has been dismissed."
		}

		if notice.Subject != "" && target != nil {
			if err := s.outbox.NotifyUser(tx, target, notice); err != nil {
				return err
			}
			result.Notified = append(result.Notified, notice.Subject)
		}

		result.Report = &report
		result.AdminAction = audit
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"report_id":        reportID,
		"action":           action,
		"staff_id":         staff.ID,
		"post_deactivated": result.PostDeactivated,
	}).Info("moderation action applied")
	return result, nil
}

func isStaff(u *models.User) bool {
	return u != nil && u.IsStaff
}
