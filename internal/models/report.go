package models

import "time"

const (
	ReportSpam                = "10_SPAM"
	ReportEUIllegalContent    = "20_EU_ILLEGAL_CONTENT"
	ReportThreateningViolence = "30_THREATENING_VIOLENCE"
	ReportHarassment          = "40_HARASSMENT"
	ReportHate                = "50_HATE"
	ReportSexualContent       = "60_SEXUAL_CONTENT"
	ReportMisinformation      = "70_MISINFORMATION"
	ReportOther               = "90_OTHER"
)

var ReportTypes = []string{
	ReportSpam,
	ReportEUIllegalContent,
	ReportThreateningViolence,
	ReportHarassment,
	ReportHate,
	ReportSexualContent,
	ReportMisinformation,
	ReportOther,
}

func ValidReportType(t string) bool {
	for _, rt := range ReportTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// PostReport starts unverified and becomes verified once staff act on it.
type PostReport struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	PostID     int       `gorm:"index;not null" json:"post_id"`
	Post       *Post     `gorm:"constraint:OnDelete:CASCADE" json:"post,omitempty"`
	ReporterID *int      `gorm:"index" json:"reporter_id"`
	Reporter   *User     `gorm:"foreignKey:ReporterID;constraint:OnDelete:SET NULL" json:"reporter,omitempty"`
	ReportType string    `gorm:"size:40;not null" json:"report_type"`
	Details    string    `gorm:"type:text" json:"details"`
	Verified   bool      `gorm:"index" json:"verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateReportRequest struct {
	ReportType string `json:"report_type" binding:"required"`
	Details    string `json:"details" binding:"max=2000"`
}
