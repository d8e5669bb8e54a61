package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/shastra-shield/pkg/advisor"
	"github.com/ExclusiveAccount/shastra-shield/pkg/models"
)

// ExplainRequest represents a request for a threat explanation.
// Empty fields are passed through to the advisor as they are.
type ExplainRequest struct {
	ThreatType string `json:"threat_type"`
	DeviceName string `json:"device_name"`
}

// Assistant exposes the text advisor over HTTP. The exchange history lives on
// the caller's session.
type Assistant struct {
	advisor *advisor.Advisor
	logger  *logrus.Logger
}

// NewAssistant creates a new assistant service
func NewAssistant(a *advisor.Advisor, logger *logrus.Logger) *Assistant {
	if logger == nil {
		logger = logrus.New()
	}

	return &Assistant{
		advisor: a,
		logger:  logger,
	}
}

// RegisterRoutes sets up the assistant API routes
func (a *Assistant) RegisterRoutes(router gin.IRoutes) {
	router.GET("/advisor/messages", a.getMessagesHandler)
	router.POST("/advisor/explain", a.explainHandler)

	a.logger.Debug("Registered assistant routes")
}

// getMessagesHandler returns the caller's message history
func (a *Assistant) getMessagesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).AdvisoryHistory())
}

// explainHandler asks the advisor about a threat. Provider failures are
// answered with fallback text, never with an error status.
func (a *Assistant) explainHandler(c *gin.Context) {
	var req ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userMsg := models.AdvisoryMessage{
		ID:        uuid.NewString(),
		Content:   advisor.Prompt(req.ThreatType, req.DeviceName),
		Role:      "user",
		Timestamp: time.Now(),
	}

	text, err := a.advisor.Explain(c.Request.Context(), req.ThreatType, req.DeviceName)
	if err != nil {
		a.logger.WithFields(logrus.Fields{
			"threat": req.ThreatType,
			"device": req.DeviceName,
		}).Infof("Using fallback advisory: %v", err)
	}

	assistantMsg := models.AdvisoryMessage{
		ID:        uuid.NewString(),
		Content:   advisor.Fallback(text, err),
		Role:      "assistant",
		Timestamp: time.Now(),
	}

	sess := currentSession(c)
	if recErr := sess.RecordAdvisory(userMsg, assistantMsg); recErr != nil {
		a.logger.WithField("session", sess.ID()).Warnf("Advisory not recorded: %v", recErr)
	}

	c.JSON(http.StatusOK, gin.H{
		"explanation":      assistantMsg.Content,
		"fallback":         err != nil,
		"assistantMessage": assistantMsg,
	})
}
