package handlers

import (
	"errors"
	"net/http"

	"statusboard/internal/models"
	"statusboard/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusSaved = "saved"

	errSaveConfig      = "failed to persist configuration"
	errInvalidBodyPref = "invalid body: "
)

// configRequest is the portal save payload. The password is optional: an
// empty value keeps the stored one, so the form never has to echo it back.
type configRequest struct {
	SSID            string `json:"ssid" binding:"required"`
	Password        string `json:"password"`
	City            string `json:"city" binding:"required"`
	GreetingFeedURL string `json:"greeting_feed_url"`
	FirmwareURL     string `json:"firmware_url"`
	LuckyImageURL   string `json:"lucky_image_url"`
	TimezoneOffset  *int32 `json:"timezone_offset" binding:"required"`
}

// configResponse masks the stored credential.
type configResponse struct {
	SSID            string `json:"ssid"`
	PasswordSet     bool   `json:"password_set"`
	City            string `json:"city"`
	GreetingFeedURL string `json:"greeting_feed_url"`
	FirmwareURL     string `json:"firmware_url"`
	LuckyImageURL   string `json:"lucky_image_url"`
	TimezoneOffset  int32  `json:"timezone_offset"`
	Valid           bool   `json:"valid"`
}

func (h *Handler) getConfig(c *gin.Context) {
	cfg := h.services.Config.Get()
	c.JSON(http.StatusOK, configResponse{
		SSID:            cfg.SSID,
		PasswordSet:     cfg.Password != "",
		City:            cfg.City,
		GreetingFeedURL: cfg.GreetingFeedURL,
		FirmwareURL:     cfg.FirmwareURL,
		LuckyImageURL:   cfg.LuckyImageURL,
		TimezoneOffset:  cfg.TimezoneOffset,
		Valid:           cfg.ValidSignature,
	})
}

func (h *Handler) saveConfig(c *gin.Context) {
	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	password := req.Password
	if password == "" {
		password = h.services.Config.Get().Password
	}

	rec := models.ConfigRecord{
		SSID:            req.SSID,
		Password:        password,
		City:            req.City,
		GreetingFeedURL: req.GreetingFeedURL,
		FirmwareURL:     req.FirmwareURL,
		LuckyImageURL:   req.LuckyImageURL,
		TimezoneOffset:  *req.TimezoneOffset,
	}

	if err := h.services.Config.Save(rec); err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveConfig, "config_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSaved})
}

func isValidationError(err error) bool {
	return errors.Is(err, service.ErrMissingSSID) ||
		errors.Is(err, service.ErrMissingCity) ||
		errors.Is(err, service.ErrTimezoneOutOfBand)
}
