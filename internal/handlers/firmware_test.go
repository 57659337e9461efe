package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"statusboard/internal/service"
)

func multipartImage(t *testing.T, payload string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("image", "firmware.bin")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(payload)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	_ = mw.Close()
	return body, mw.FormDataContentType()
}

func TestFirmwareUpload_CommitsAndRestarts(t *testing.T) {
	f := newTestRouter(&service.Service{}, "")
	payload := strings.Repeat("firmware-bytes", 512)
	body, contentType := multipartImage(t, payload)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/firmware", body)
	req.Header.Set("Content-Type", contentType)
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if !f.image.committed {
		t.Fatalf("image must be committed")
	}
	if f.image.buf.String() != payload {
		t.Fatalf("staged %d bytes, want %d", f.image.buf.Len(), len(payload))
	}
	rebooted, reason := f.power.Rebooted()
	if !rebooted || !strings.Contains(reason, "manual firmware update") {
		t.Fatalf("rebooted=%v reason=%q", rebooted, reason)
	}
}

func TestFirmwareUpload_MissingFileIs400(t *testing.T) {
	f := newTestRouter(&service.Service{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/firmware", strings.NewReader("not multipart"))
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
	if rebooted, _ := f.power.Rebooted(); rebooted {
		t.Fatalf("a rejected upload must not restart the device")
	}
}

func TestFirmwareUpload_StageFailureIs400(t *testing.T) {
	f := newTestRouter(&service.Service{}, "")
	f.image.beginErr = errors.New("image exceeds available space")
	body, contentType := multipartImage(t, "too big")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/firmware", body)
	req.Header.Set("Content-Type", contentType)
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
	if f.image.committed {
		t.Fatalf("nothing may be committed after a failed Begin")
	}
}

func TestFirmwareCheck_ReportsPendingTarget(t *testing.T) {
	up := &mockUpdater{etag: `"v2"`, pending: true}
	f := newTestRouter(&service.Service{Updater: up}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/firmware/check", nil)
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if up.checks != 1 {
		t.Fatalf("checks=%d, want 1", up.checks)
	}
	var resp struct {
		Status        string `json:"status"`
		UpdatePending bool   `json:"update_pending"`
		TargetETag    string `json:"target_etag"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != statusChecked || !resp.UpdatePending || resp.TargetETag != `"v2"` {
		t.Fatalf("bad response: %+v", resp)
	}
}

func TestFirmwareCheck_UpstreamFailureIs502(t *testing.T) {
	up := &mockUpdater{checkErr: errors.New("dns lookup failed")}
	f := newTestRouter(&service.Service{Updater: up}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/firmware/check", nil)
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status=%d, want 502", w.Code)
	}
}
