package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fairplay-vault/sentinel/internal/core/domain"
	"github.com/gin-gonic/gin"
)

type importRequest struct {
	Salt  string `json:"salt"`
	Label string `json:"label"`
}

func (s *Service) commitHandler(c *gin.Context) {
	info, err := s.appSvc.GenerateCommitment(c.Request.Context(), c.Query("label"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":    info.Address,
		"commitment": info.Commitment,
		"salt":       info.Salt,
	})
}

func (s *Service) importHandler(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	commitment, err := s.appSvc.ImportSalt(c.Request.Context(), req.Salt, req.Label)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSalt) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"commitment": commitment})
}

func (s *Service) scheduleHandler(c *gin.Context) {
	poolID, err := strconv.ParseUint(c.Param("poolId"), 10, 64)
	if err != nil || poolID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}

	if err := s.appSvc.SchedulePool(c.Request.Context(), poolID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Service) statusHandler(c *gin.Context) {
	status, err := s.appSvc.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":            status.Address,
		"chainId":            status.ChainID,
		"vaultAddress":       status.VaultAddress,
		"trackedCommitments": status.TrackedCommitments,
		"trackedPools":       status.TrackedPools,
		"currentChainTime":   status.CurrentChainTime,
	})
}

func (s *Service) saltsHandler(c *gin.Context) {
	dump, err := s.appSvc.DumpStore(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dump)
}
