package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	statusApplied = "applied"
	statusChecked = "checked"

	errFirmwareForm   = "multipart form field 'image' is required"
	errFirmwareStage  = "failed to stage firmware image"
	errFirmwareWrite  = "failed to write firmware image"
	errFirmwareCommit = "failed to activate firmware image"
	errFirmwareCheck  = "firmware check failed"

	uploadChunk = 32 << 10
)

// uploadFirmware receives a firmware image over the manual-update portal,
// stages it, activates it, and restarts the device. The response is
// flushed before the restart so the browser sees the outcome.
func (h *Handler) uploadFirmware(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errFirmwareForm})
		return
	}
	defer file.Close()

	if err := h.image.Begin(header.Size); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errFirmwareStage, "firmware_stage_failed", err, "size", header.Size)
		return
	}

	written, err := io.CopyBuffer(h.image, file, make([]byte, uploadChunk))
	if err != nil {
		h.image.Abort()
		h.logAndJSONError(c, http.StatusInternalServerError, errFirmwareWrite, "firmware_write_failed", err, "written", written)
		return
	}
	if err := h.image.Commit(); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errFirmwareCommit, "firmware_commit_failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": statusApplied, "bytes": written})
	c.Writer.Flush()
	h.power.Reboot("manual firmware update applied")
}

// checkFirmware triggers an immediate remote version probe and reports
// whether an update is now pending.
func (h *Handler) checkFirmware(c *gin.Context) {
	if err := h.services.Updater.CheckForUpdate(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errFirmwareCheck, "firmware_check_failed", err)
		return
	}
	etag, pending := h.services.Updater.PendingTarget()
	resp := gin.H{"status": statusChecked, "update_pending": pending}
	if pending {
		resp["target_etag"] = etag
	}
	c.JSON(http.StatusOK, resp)
}
