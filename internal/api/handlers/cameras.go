package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/camwatch/camwatch-go/internal/core/storage"
	"github.com/camwatch/camwatch-go/pkg/utils"
)

// ListCameras returns the configured cameras and whether each has any
// stored photos yet.
func (h *Handlers) ListCameras(c *gin.Context) {
	stored := make(map[string]bool)
	for _, name := range h.store.Cameras() {
		stored[name] = true
	}

	type cameraInfo struct {
		Name       string `json:"name"`
		Normalized string `json:"normalized"`
		HasPhotos  bool   `json:"has_photos"`
		Snoozed    bool   `json:"snoozed"`
	}

	out := make([]cameraInfo, 0, len(h.cfg.Capture.Cameras))
	for _, name := range h.cfg.Capture.Cameras {
		normalized := storage.NormalizeName(name)
		out = append(out, cameraInfo{
			Name:       name,
			Normalized: normalized,
			HasPhotos:  stored[normalized],
			Snoozed:    h.snoozes.IsSnoozed(name),
		})
	}
	utils.SendSuccess(c, out)
}

// GetCameraStats returns photo counts and storage usage per camera.
func (h *Handlers) GetCameraStats(c *gin.Context) {
	utils.SendSuccess(c, h.store.AllStats())
}

// GetCameraStatus returns the camera's last written status document.
func (h *Handlers) GetCameraStatus(c *gin.Context) {
	camera := c.Param("name")
	status, err := h.store.ReadStatus(camera)
	if err != nil {
		utils.SendError(c, http.StatusNotFound, "No status recorded for camera")
		return
	}
	utils.SendSuccess(c, status)
}

// GetLatestPhoto serves the camera's most recent photo file.
func (h *Handlers) GetLatestPhoto(c *gin.Context) {
	camera := c.Param("name")
	path := h.store.LatestPhoto(camera)
	if path == "" {
		utils.SendError(c, http.StatusNotFound, "No photos stored for camera")
		return
	}
	c.File(path)
}

// GetPhoto serves one stored photo by date folder and filename. The path is
// resolved inside the camera's directory only; lookups for unknown cameras
// never create folders.
func (h *Handlers) GetPhoto(c *gin.Context) {
	camera := c.Param("name")
	date := c.Param("date")
	file := c.Param("file")

	path := h.store.ResolvePhoto(camera, date, file)
	if _, err := os.Stat(path); err != nil {
		utils.SendError(c, http.StatusNotFound, "Photo not found")
		return
	}
	c.File(path)
}

// ListPhotoDates returns the camera's stored date folders, newest first.
func (h *Handlers) ListPhotoDates(c *gin.Context) {
	camera := c.Param("name")
	utils.SendSuccess(c, h.store.DateFolders(camera))
}
