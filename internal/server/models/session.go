package models

import "time"

// Session is one issued token in a user's active-token set. A token stays
// valid only while its row exists.
type Session struct {
	UserID    string
	Token     string
	CreatedAt time.Time
}
