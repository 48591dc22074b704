package services

import (
	"regexp"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/emilythestrangee/agora/backend/internal/models"
)

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// ExtractTags returns the distinct lowercase hashtags in body, sorted.
func ExtractTags(body string) []string {
	seen := map[string]bool{}
	var tags []string
	for _, m := range hashtagPattern.FindAllStringSubmatch(body, -1) {
		name := strings.ToLower(m[1])
		if len(name) > 100 || seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, name)
	}
	sort.Strings(tags)
	return tags
}

// syncTags diffs the hashtags in body against the stored tags of the
// post, deleting the ones that disappeared and adding the new ones.
func syncTags(tx *gorm.DB, postID int, body string) error {
	current := ExtractTags(body)

	var existing []string
	if err := tx.Model(&models.Tag{}).Where("post_id = ?", postID).Pluck("name", &existing).Error; err != nil {
		return err
	}

	want := make(map[string]bool, len(current))
	for _, name := range current {
		want[name] = true
	}
	have := make(map[string]bool, len(existing))
	var stale []string
	for _, name := range existing {
		have[name] = true
		if !want[name] {
			stale = append(stale, name)
		}
	}

	if len(stale) > 0 {
		if err := tx.Where("post_id = ? AND name IN ?", postID, stale).Delete(&models.Tag{}).Error; err != nil {
			return err
		}
	}

	var fresh []models.Tag
	for _, name := range current {
		if !have[name] {
			fresh = append(fresh, models.Tag{PostID: postID, Name: name})
		}
	}
	if len(fresh) > 0 {
		return tx.Create(&fresh).Error
	}
	return nil
}
