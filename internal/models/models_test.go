package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLastActivityAgo(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5 minutes ago"},
		{3 * time.Hour, "3 hours ago"},
		{30 * time.Hour, "1 day ago"},
		{5 * 24 * time.Hour, "5 days ago"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			last := now.Add(-tt.ago)
			u := &User{LastActivity: &last}
			assert.Equal(t, tt.want, u.LastActivityAgo(now))
		})
	}

	assert.Equal(t, "", (&User{}).LastActivityAgo(now))
}

func TestIsOnline(t *testing.T) {
	now := time.Now()
	recent := now.Add(-2 * time.Minute)
	stale := now.Add(-10 * time.Minute)

	assert.True(t, (&User{LastActivity: &recent}).IsOnline(now, 5*time.Minute))
	assert.False(t, (&User{LastActivity: &stale}).IsOnline(now, 5*time.Minute))
	assert.False(t, (&User{}).IsOnline(now, 5*time.Minute))
}

func TestGenerateVersion(t *testing.T) {
	p := &Post{Title: "Hello", Body: "world", IsActive: true}
	v1 := p.GenerateVersion()
	assert.Len(t, v1, 64)
	assert.Equal(t, v1, (&Post{Title: "Hello", Body: "world", IsActive: true}).GenerateVersion())

	p.IsActive = false
	assert.NotEqual(t, v1, p.GenerateVersion())
}

func TestScore(t *testing.T) {
	p := &Post{UpVotes: 7, DownVotes: 3}
	assert.Equal(t, 4, p.Score())
}

func TestGoldFor(t *testing.T) {
	tests := []struct {
		index int
		want  int
	}{
		{0, 15},
		{5, 25},
		{10, 50},
	}
	for _, tt := range tests {
		gold, ok := GoldFor(RewardChoices[tt.index].Code)
		assert.True(t, ok)
		assert.Equal(t, tt.want, gold)
	}

	_, ok := GoldFor("99_UNKNOWN")
	assert.False(t, ok)
}

func TestDisplayName(t *testing.T) {
	u := &User{Username: "alice"}
	assert.Equal(t, "alice", u.DisplayName())

	u.Profile = &Profile{Nickname: "ally"}
	assert.Equal(t, "ally", u.DisplayName())
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, ValidPrivacy(PrivacyRestricted))
	assert.False(t, ValidPrivacy("PUBLIC"))
	assert.True(t, ValidRole(RoleModerator))
	assert.False(t, ValidRole("OWNER"))
	assert.True(t, ValidVoteChoice(VoteDown))
}
