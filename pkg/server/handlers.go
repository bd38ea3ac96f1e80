package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"phishjudge/pkg/common"
	"phishjudge/pkg/detector"
	"phishjudge/pkg/logger"
)

func (s *Server) handleCheck(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("url"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing url"})
		return
	}

	v, err := s.checker.Check(c.Request.Context(), raw)
	if err != nil {
		if errors.Is(err, detector.ErrEmptyURL) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, v.Response())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"version":           s.version,
		"blacklist_domains": s.blacklist.Len(),
	})
}

func (s *Server) handleListBlacklist(c *gin.Context) {
	c.JSON(http.StatusOK, s.blacklist.List())
}

func (s *Server) handleReplaceBlacklist(c *gin.Context) {
	var domains []string
	if err := c.ShouldBindJSON(&domains); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a JSON array of domains"})
		return
	}
	if err := s.blacklist.Replace(domains); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.blacklistChanged()
	c.JSON(http.StatusOK, gin.H{"domains": s.blacklist.Len()})
}

type addRequest struct {
	Domain string `json:"domain" binding:"required"`
}

func (s *Server) handleAddBlacklist(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil || common.HostOf(req.Domain) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected {\"domain\": \"...\"}"})
		return
	}
	if err := s.blacklist.Add(req.Domain); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.blacklistChanged()
	c.JSON(http.StatusCreated, gin.H{"domain": common.HostOf(req.Domain)})
}

func (s *Server) handleRemoveBlacklist(c *gin.Context) {
	removed, err := s.blacklist.Remove(c.Param("domain"))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "domain not on blacklist"})
		return
	}
	s.blacklistChanged()
	c.Status(http.StatusNoContent)
}

// handleReloadBlacklist rereads the backing file, picking up edits made by
// other processes.
func (s *Server) handleReloadBlacklist(c *gin.Context) {
	if err := s.blacklist.Reload(); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.blacklistChanged()
	c.JSON(http.StatusOK, gin.H{"domains": s.blacklist.Len()})
}

func (s *Server) blacklistChanged() {
	n := s.blacklist.Len()
	s.metrics.SetBlacklistSize(n)
	s.log.Info("blacklist changed", logger.Int("domains", n))
}
