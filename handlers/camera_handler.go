package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sentinel-cctv/be/logger"
	"sentinel-cctv/be/models"
	"sentinel-cctv/be/notify"
	"sentinel-cctv/be/services"
	"sentinel-cctv/be/store"
)

type CameraHandler struct {
	*resource[models.Camera, models.CameraInsert, models.CameraPatch]

	store    store.Store
	mediamtx *services.MediaMTXService
	probe    *services.ProbeService
	notifier *notifier
	log      *zap.Logger
}

// NewCameraHandler wires camera CRUD plus live streaming and probing.
// mediamtx and probe may be nil, which disables their routes with 503.
func NewCameraHandler(s store.Store, n *notifier, mediamtx *services.MediaMTXService, probe *services.ProbeService) *CameraHandler {
	h := &CameraHandler{
		store:    s,
		mediamtx: mediamtx,
		probe:    probe,
		notifier: n,
		log:      logger.GetLoggerWith("handlers.camera"),
	}
	h.resource = &resource[models.Camera, models.CameraInsert, models.CameraPatch]{
		kind:   "Camera",
		schema: cameraSchema,
		log:    h.log,
		list:   listAll(s.ListCameras),
		get:    s.GetCamera,
		create: s.CreateCamera,
		update: s.UpdateCamera,
		remove: s.DeleteCamera,
		afterCreate: func(ctx context.Context, c *models.Camera) {
			n.update(notify.UpdateCameras, c)
		},
		afterUpdate: func(ctx context.Context, before, after *models.Camera) {
			if before.Status != after.Status {
				n.cameraStatusChanged(ctx, after)
			}
			n.update(notify.UpdateCameras, after)
		},
		afterDelete: h.cameraDeleted,
	}
	return h
}

func (h *CameraHandler) register(g *gin.RouterGroup) {
	h.resource.register(g)
	g.GET("/:id/stream", h.GetStream)
	g.DELETE("/:id/stream", h.StopStream)
	g.GET("/:id/stream/health", h.GetStreamHealth)
	g.POST("/:id/probe", h.Probe)
}

func (h *CameraHandler) cameraDeleted(ctx context.Context, id uint) {
	if h.mediamtx != nil && h.mediamtx.Enabled() {
		if _, active := h.mediamtx.StreamURL(id); active {
			if err := h.mediamtx.StopStream(ctx, id); err != nil {
				h.log.Warn("failed to stop stream of deleted camera", zap.Uint("camera_id", id), zap.Error(err))
			}
		}
	}
	h.notifier.update(notify.UpdateCameras, gin.H{"id": id, "deleted": true})
}

func (h *CameraHandler) streamingEnabled(c *gin.Context) bool {
	if h.mediamtx == nil || !h.mediamtx.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Live streaming is disabled"})
		return false
	}
	return true
}

// GetStream returns the HLS URL of a camera, registering it with MediaMTX
// on first use.
func (h *CameraHandler) GetStream(c *gin.Context) {
	id, ok := parseID(c)
	if !ok || !h.streamingEnabled(c) {
		return
	}
	ctx := c.Request.Context()

	cam, err := h.store.GetCamera(ctx, id)
	if err != nil {
		respondError(c, h.log, "Camera", err)
		return
	}

	info, err := h.mediamtx.Stream(ctx, cam.ID, cam.RTSPURL())
	if err != nil {
		h.log.Error("failed to start stream", zap.Uint("camera_id", cam.ID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Failed to start stream"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *CameraHandler) StopStream(c *gin.Context) {
	id, ok := parseID(c)
	if !ok || !h.streamingEnabled(c) {
		return
	}
	if err := h.mediamtx.StopStream(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrStreamNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Stream not found"})
			return
		}
		h.log.Error("failed to stop stream", zap.Uint("camera_id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Failed to stop stream"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stream stopped"})
}

func (h *CameraHandler) GetStreamHealth(c *gin.Context) {
	id, ok := parseID(c)
	if !ok || !h.streamingEnabled(c) {
		return
	}
	if _, active := h.mediamtx.StreamURL(id); !active {
		c.JSON(http.StatusNotFound, gin.H{"message": "Stream not found"})
		return
	}
	healthy := h.mediamtx.Health(c.Request.Context())[id]
	c.JSON(http.StatusOK, gin.H{"cameraId": id, "isHealthy": healthy})
}

// Probe dials the camera stream and records the outcome as its status.
func (h *CameraHandler) Probe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if h.probe == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Camera probing is disabled"})
		return
	}
	ctx := c.Request.Context()

	res, err := h.probe.Probe(ctx, id)
	if err != nil {
		respondError(c, h.log, "Camera", err)
		return
	}
	if res.Changed {
		h.notifier.cameraStatusChanged(ctx, res.Camera)
		h.notifier.update(notify.UpdateCameras, res.Camera)
	}
	c.JSON(http.StatusOK, res)
}
