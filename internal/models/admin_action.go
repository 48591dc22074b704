package models

import "time"

const (
	ActionBan           = "BAN"
	ActionDelete        = "DELETE"
	ActionWarn          = "WARN"
	ActionDismissReport = "DISMISS_REPORT"
)

func ValidAdminAction(a string) bool {
	switch a {
	case ActionBan, ActionDelete, ActionWarn, ActionDismissReport:
		return true
	}
	return false
}

// AdminAction is the append-only audit log of moderation decisions.
type AdminAction struct {
	ID           int         `gorm:"primaryKey" json:"id"`
	ReportID     int         `gorm:"index;not null" json:"report_id"`
	Report       *PostReport `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Action       string      `gorm:"size:20;not null" json:"action"`
	Comment      string      `gorm:"type:text" json:"comment"`
	StaffID      *int        `gorm:"index" json:"staff_id"`
	Staff        *User       `gorm:"foreignKey:StaffID;constraint:OnDelete:SET NULL" json:"staff,omitempty"`
	TargetUserID *int        `gorm:"index" json:"target_user_id"`
	// WarningsAfter is the target's warning count once a WARN was applied.
	WarningsAfter *int      `json:"warnings_after,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type AdminActionRequest struct {
	Action  string `json:"action" binding:"required,oneof=BAN DELETE WARN DISMISS_REPORT"`
	Comment string `json:"comment"`
}
