package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sentinel-cctv/be/logger"
	"sentinel-cctv/be/middleware"
	"sentinel-cctv/be/models"
	"sentinel-cctv/be/notify"
	"sentinel-cctv/be/services"
	"sentinel-cctv/be/store"
)

// DashboardHandler serves the settings singleton, statistics, the assistant
// and manual broadcasts.
type DashboardHandler struct {
	store     store.Store
	stats     *services.StatsService
	assistant *services.Assistant
	notifier  *notifier
	log       *zap.Logger
}

func NewDashboardHandler(s store.Store, stats *services.StatsService, assistant *services.Assistant, n *notifier) *DashboardHandler {
	return &DashboardHandler{
		store:     s,
		stats:     stats,
		assistant: assistant,
		notifier:  n,
		log:       logger.GetLoggerWith("handlers.dashboard"),
	}
}

// GetSettings writes the default settings on first read.
func (h *DashboardHandler) GetSettings(c *gin.Context) {
	ctx := c.Request.Context()
	settings, err := h.store.GetSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		settings, err = h.store.UpdateSettings(ctx, models.SettingsPatch{})
	}
	if err != nil {
		respondError(c, h.log, "Settings", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *DashboardHandler) UpdateSettings(c *gin.Context) {
	var p models.SettingsPatch
	if !bindPatch(c, &p) {
		return
	}
	settings, err := h.store.UpdateSettings(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.log, "Settings", err)
		return
	}
	h.notifier.update(notify.UpdateSettings, settings)
	c.JSON(http.StatusOK, settings)
}

func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.Compute(c.Request.Context())
	if err != nil {
		respondError(c, h.log, "Stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *DashboardHandler) Chat(c *gin.Context) {
	var req chatRequest
	if !bindInsert(c, chatSchema, &req) {
		return
	}

	var userID *uint
	if id, ok := middleware.UserID(c); ok {
		userID = &id
	}

	reply, err := h.assistant.Ask(c.Request.Context(), req.Message, userID)
	if err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Message is required"})
			return
		}
		respondError(c, h.log, "Search query", err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// Broadcast sends a system notification to every connected dashboard.
func (h *DashboardHandler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if !bindInsert(c, broadcastSchema, &req) {
		return
	}
	if h.notifier.pub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Notifications are unavailable"})
		return
	}

	priority := notify.PriorityMedium
	if req.Priority != nil {
		priority = notify.Priority(*req.Priority)
	}
	sent := h.notifier.pub.Notify(notify.Notification{
		Category: notify.CategorySystem,
		Priority: priority,
		Title:    req.Title,
		Message:  req.Message,
	})
	h.log.Info("system notification broadcast", zap.String("id", sent.ID))
	c.JSON(http.StatusOK, sent)
}
