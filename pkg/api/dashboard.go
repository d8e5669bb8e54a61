package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/shastra-shield/pkg/models"
	"github.com/ExclusiveAccount/shastra-shield/pkg/views"
)

// ProtectionRequest carries the autonomous-protection toggle
type ProtectionRequest struct {
	Autonomous *bool `json:"autonomous" binding:"required"`
}

// ProvisionRequest is the device provisioning form
type ProvisionRequest struct {
	Name string            `json:"name"`
	Type models.DeviceType `json:"type"`
	IP   *string           `json:"ip"`
}

func (s *Server) handleNavigation(c *gin.Context) {
	c.JSON(http.StatusOK, views.Navigation)
}

func (s *Server) handleView(c *gin.Context) {
	selection, err := views.ParseSelection(c.Param("selection"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	vm, err := s.views.Route(selection, currentSession(c).Snapshot())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, views.ErrUnknownSelection) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, vm)
}

func (s *Server) handleProtection(c *gin.Context) {
	var req ProtectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := currentSession(c)
	mode := models.ModeFor(*req.Autonomous)
	if err := sess.SetProtectionMode(mode); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	s.logger.WithField("session", sess.ID()).Infof("Protection mode set to %s", mode)
	c.JSON(http.StatusOK, gin.H{"protection_mode": mode})
}

func (s *Server) handleDrill(c *gin.Context) {
	result, err := s.drills.Run(currentSession(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetDevices(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).Devices())
}

func (s *Server) handleProvisionDevice(c *gin.Context) {
	var req ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Unset fields take the form defaults
	ip := s.config.Simulation.IPPlaceholder
	if req.IP != nil {
		ip = *req.IP
	}
	deviceType := req.Type
	if deviceType == "" {
		deviceType = models.ProvisionableTypes[0]
	}

	sess := currentSession(c)
	log := s.logger.WithFields(logrus.Fields{
		"session": sess.ID(),
		"type":    deviceType,
	})
	if !deviceType.IsProvisionable() {
		log.Warn("Provisioning device with unlisted type")
	}

	device, err := sess.ProvisionDevice(req.Name, deviceType, ip)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	log.WithField("device", device.ID).Info("Device linked to mesh")
	c.JSON(http.StatusCreated, gin.H{
		"device":  device,
		"message": fmt.Sprintf("%s provisioned successfully.", device.Name),
	})
}

func (s *Server) handleGetAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).RecentThreats(s.config.Simulation.AlertFeedSize))
}
