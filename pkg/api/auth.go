package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/shastra-shield/pkg/session"
	"github.com/ExclusiveAccount/shastra-shield/pkg/views"
)

const (
	sessionCookie = "shastra_session"
	sessionKey    = "session"
)

// LoginRequest is the credential form
type LoginRequest struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

// sessionMiddleware resolves the caller's session from its cookie. Callers
// without a stored session get a fresh unsaved one; it is only stored, and the
// cookie only issued, once login succeeds.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := s.sessions.Get(cookieValue(c))
		if err != nil {
			sess = s.sessions.New()
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

func cookieValue(c *gin.Context) string {
	id, _ := c.Cookie(sessionCookie)
	return id
}

// requireAuth is the authentication gate: unauthenticated callers only ever see the login form
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentSession(c).IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": session.ErrNotAuthenticated.Error(),
				"login": views.Login(""),
			})
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := currentSession(c)
	if err := sess.Authenticate(req.Identity, req.Secret); err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			s.logger.WithField("session", sess.ID()).Info("Rejected empty credentials")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
				"login": views.Login("Invalid Credentials Vault"),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.sessions.Add(sess)
	if cookieValue(c) != sess.ID() {
		c.SetCookie(sessionCookie, sess.ID(), 0, "/", "", false, true)
	}

	s.logger.WithFields(logrus.Fields{
		"session": sess.ID(),
		"user":    req.Identity,
	}).Info("Link established")

	c.JSON(http.StatusOK, gin.H{
		"user":       sess.User(),
		"navigation": views.Navigation,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	sess := currentSession(c)
	sess.Logout()

	s.logger.WithField("session", sess.ID()).Info("Logged out")
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}
