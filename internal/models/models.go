package models

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&Profile{},
		&Community{},
		&CommunityMember{},
		&Post{},
		&Tag{},
		&Vote{},
		&Award{},
		&PostReport{},
		&AdminAction{},
		&SavedPost{},
		&OutboxMessage{},
	}
}
