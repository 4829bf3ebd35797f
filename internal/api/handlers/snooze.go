package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/camwatch/camwatch-go/pkg/utils"
)

// snoozeRequest is the body for snooze endpoints. Duration uses Go syntax
// ("30m", "2h").
type snoozeRequest struct {
	Duration string `json:"duration" binding:"required"`
	Reason   string `json:"reason"`
}

func parseSnoozeDuration(c *gin.Context) (time.Duration, string, bool) {
	var req snoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Request body must include a duration")
		return 0, "", false
	}

	d, err := time.ParseDuration(req.Duration)
	if err != nil || d <= 0 {
		utils.SendError(c, http.StatusBadRequest, "Invalid snooze duration")
		return 0, "", false
	}
	return d, req.Reason, true
}

// GetSnoozes lists active snoozes.
func (h *Handlers) GetSnoozes(c *gin.Context) {
	utils.SendSuccess(c, h.snoozes.Active())
}

// SnoozeCamera suppresses one camera for the requested duration.
func (h *Handlers) SnoozeCamera(c *gin.Context) {
	d, reason, ok := parseSnoozeDuration(c)
	if !ok {
		return
	}

	entry, err := h.snoozes.Snooze(c.Param("name"), d, reason)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}
	utils.SendSuccess(c, entry)
}

// SnoozeAll suppresses every camera for the requested duration.
func (h *Handlers) SnoozeAll(c *gin.Context) {
	d, reason, ok := parseSnoozeDuration(c)
	if !ok {
		return
	}

	entry, err := h.snoozes.SnoozeAll(d, reason)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}
	utils.SendSuccess(c, entry)
}

// UnsnoozeCamera clears one camera's snooze.
func (h *Handlers) UnsnoozeCamera(c *gin.Context) {
	h.snoozes.Unsnooze(c.Param("name"))
	utils.SendSuccess(c, gin.H{"cleared": c.Param("name")})
}

// UnsnoozeAll clears every snooze.
func (h *Handlers) UnsnoozeAll(c *gin.Context) {
	h.snoozes.UnsnoozeAll()
	utils.SendSuccess(c, gin.H{"cleared": "all"})
}
