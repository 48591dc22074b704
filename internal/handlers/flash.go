package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/agora/backend/internal/logger"
)

// redirectWithMessage stores a one-shot message in the session and
// redirects. Clients read it back from GET /api/messages.
func redirectWithMessage(c *gin.Context, location, message string) {
	session := sessions.Default(c)
	session.AddFlash(message)
	if err := session.Save(); err != nil {
		logger.Log.WithError(err).Warn("save flash message")
	}
	c.Redirect(http.StatusFound, location)
}

// Messages pops the pending flash messages.
func Messages(c *gin.Context) {
	session := sessions.Default(c)
	messages := []string{}
	for _, f := range session.Flashes() {
		if s, ok := f.(string); ok {
			messages = append(messages, s)
		}
	}
	if err := session.Save(); err != nil {
		logger.Log.WithError(err).Warn("clear flash messages")
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
