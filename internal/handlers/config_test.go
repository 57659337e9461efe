package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"statusboard/internal/models"
	"statusboard/internal/service"
)

func TestConfigHandlers_GetMasksPassword(t *testing.T) {
	cfg := &mockConfig{rec: models.ConfigRecord{
		SSID:           "home-net",
		Password:       "hunter2",
		City:           "Hanoi",
		TimezoneOffset: 7 * 3600,
		ValidSignature: true,
	}}
	f := newTestRouter(&service.Service{Config: cfg}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if bytes.Contains(w.Body.Bytes(), []byte("hunter2")) {
		t.Fatalf("password leaked into response: %s", w.Body.String())
	}
	var resp configResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.SSID != "home-net" || !resp.PasswordSet || !resp.Valid {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestConfigHandlers_SaveKeepsStoredPasswordWhenOmitted(t *testing.T) {
	cfg := &mockConfig{rec: models.ConfigRecord{SSID: "home-net", Password: "hunter2"}}
	f := newTestRouter(&service.Service{Config: cfg}, "")

	body := bytes.NewBufferString(`{"ssid":"home-net","city":"Hue","timezone_offset":25200}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/config", body)
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if len(cfg.saved) != 1 {
		t.Fatalf("saves=%d, want 1", len(cfg.saved))
	}
	got := cfg.saved[0]
	if got.Password != "hunter2" {
		t.Fatalf("omitted password must keep the stored one, got %q", got.Password)
	}
	if got.City != "Hue" || got.TimezoneOffset != 25200 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestConfigHandlers_SaveRejectsIncompleteBody(t *testing.T) {
	cfg := &mockConfig{}
	f := newTestRouter(&service.Service{Config: cfg}, "")

	// timezone_offset missing entirely: the device cannot guess it.
	body := bytes.NewBufferString(`{"ssid":"home-net","city":"Hue"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/config", body)
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
	if len(cfg.saved) != 0 {
		t.Fatalf("nothing may be persisted on a bad request")
	}
}

func TestConfigHandlers_SaveValidationErrorIs400(t *testing.T) {
	cfg := &mockConfig{saveErr: service.ErrTimezoneOutOfBand}
	f := newTestRouter(&service.Service{Config: cfg}, "")

	body := bytes.NewBufferString(`{"ssid":"home-net","city":"Hue","timezone_offset":90000}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/config", body)
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400 for a validation failure", w.Code)
	}
}
