package models

import "time"

type Award struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	PostID     int       `gorm:"uniqueIndex:idx_award_post_giver;not null" json:"post_id"`
	GiverID    int       `gorm:"uniqueIndex:idx_award_post_giver;not null" json:"-"`
	Giver      *User     `gorm:"foreignKey:GiverID;constraint:OnDelete:CASCADE" json:"-"`
	ReceiverID *int      `gorm:"index" json:"receiver_id"`
	Choice     string    `gorm:"size:30;not null" json:"choice"`
	Gold       int       `gorm:"not null" json:"gold"`
	Anonymous  bool      `json:"anonymous"`
	Comment    string    `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

type RewardChoice struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Gold  int    `json:"gold"`
}

// RewardChoices lists the purchasable awards, five per tier.
var RewardChoices = []RewardChoice{
	{"10_HELPFUL", "Helpful", 15},
	{"11_WHOLESOME", "Wholesome", 15},
	{"12_FUNNY", "Funny", 15},
	{"13_HUGZ", "Hugz", 15},
	{"14_TAKE_MY_ENERGY", "Take My Energy", 15},
	{"20_SILVER", "Silver", 25},
	{"21_HEARTWARMING", "Heartwarming", 25},
	{"22_BIG_BRAIN", "Big Brain", 25},
	{"23_ROCKET", "Rocket Like", 25},
	{"24_STARSTRUCK", "Starstruck", 25},
	{"30_GOLD", "Gold", 50},
	{"31_PLATINUM", "Platinum", 50},
	{"32_TREASURE", "Treasure", 50},
	{"33_CROWN", "Crown", 50},
	{"34_ARGENTIUM", "Argentium", 50},
}

// GoldFor returns the gold value of a reward choice.
func GoldFor(choice string) (int, bool) {
	for _, rc := range RewardChoices {
		if rc.Code == choice {
			return rc.Gold, true
		}
	}
	return 0, false
}

type CreateAwardRequest struct {
	Choice    string `json:"choice" binding:"required"`
	Anonymous bool   `json:"anonymous"`
	Comment   string `json:"comment" binding:"max=500"`
}
