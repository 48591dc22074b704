package middleware

import "github.com/gin-gonic/gin"

// Toucher records that a user was active.
type Toucher interface {
	Touch(userID int)
}

// TrackActivity marks authenticated users as active. It must run after
// the auth middleware.
func TrackActivity(t Toucher) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := UserID(c); userID != 0 {
			t.Touch(userID)
		}
		c.Next()
	}
}
