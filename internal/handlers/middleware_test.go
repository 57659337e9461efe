package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"statusboard/internal/models"
	"statusboard/internal/service"

	"golang.org/x/crypto/bcrypt"
)

func savePayload() *bytes.Buffer {
	return bytes.NewBufferString(`{"ssid":"home-net","city":"Hue","timezone_offset":25200}`)
}

func TestAdminRequired_OpenWithoutConfiguredHash(t *testing.T) {
	cfg := &mockConfig{}
	f := newTestRouter(&service.Service{Config: cfg}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/config", savePayload())
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want open access without a configured hash", w.Code)
	}
}

func TestAdminRequired_GuardsMutatingEndpoints(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	cfg := &mockConfig{rec: models.ConfigRecord{SSID: "home-net"}}
	f := newTestRouter(&service.Service{Config: cfg}, string(hash))

	// No credentials.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/config", savePayload())
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401 without credentials", w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); got == "" {
		t.Fatalf("missing WWW-Authenticate challenge")
	}

	// Wrong password.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/config", savePayload())
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("admin", "guess")
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401 for a wrong password", w.Code)
	}

	// Correct password.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/config", savePayload())
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("admin", "sesame")
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if len(cfg.saved) != 1 {
		t.Fatalf("authorized save must reach the service")
	}
}

func TestAdminRequired_ReadEndpointsStayOpen(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("sesame"), bcrypt.MinCost)
	st := &mockStatus{status: sampleStatus()}
	f := newTestRouter(&service.Service{Status: st, Config: &mockConfig{}}, string(hash))

	for _, path := range []string{"/status", "/config", "/health"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		f.router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s status=%d, want open read access", path, w.Code)
		}
	}
}
