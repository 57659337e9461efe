package repository_test

import (
	"strings"
	"testing"

	"statusboard/internal/models"
	"statusboard/internal/repository"
	"statusboard/internal/repository/flash"
)

func newStore(t *testing.T) (*repository.ConfigFlash, *flash.MemDevice) {
	t.Helper()
	dev := flash.NewMem(repository.RecordSize)
	return repository.NewConfigFlash(dev), dev
}

func TestConfigFlash_RoundTrip(t *testing.T) {
	store, _ := newStore(t)

	in := models.ConfigRecord{
		SSID:            "home-net",
		Password:        "s3cret pass",
		City:            "Hanoi",
		GreetingFeedURL: "https://example.com/greeting.txt",
		FirmwareURL:     "https://example.com/fw/status.bin",
		LuckyImageURL:   "https://example.com/lucky.bmp",
		FirmwareETag:    `"abc123"`,
		TimezoneOffset:  7 * 3600,
	}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out := store.Load()
	if !out.ValidSignature {
		t.Fatalf("expected valid signature after save")
	}
	in.ValidSignature = true
	if out != in {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestConfigFlash_TruncatesToFieldCapacity(t *testing.T) {
	store, _ := newStore(t)

	longSSID := strings.Repeat("a", 100)
	longURL := "https://example.com/" + strings.Repeat("x", 200)
	if err := store.Save(models.ConfigRecord{SSID: longSSID, City: "Hue", FirmwareURL: longURL}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out := store.Load()
	if got, want := out.SSID, longSSID[:32]; got != want {
		t.Errorf("SSID = %q, want %q", got, want)
	}
	if got, want := out.FirmwareURL, longURL[:96]; got != want {
		t.Errorf("FirmwareURL = %q, want %q", got, want)
	}
}

func TestConfigFlash_LoadErasedDevice(t *testing.T) {
	store, _ := newStore(t)

	out := store.Load()
	if out != (models.ConfigRecord{}) {
		t.Fatalf("erased device should decode to zero record, got %+v", out)
	}
}

func TestConfigFlash_LoadCorruptedSignature(t *testing.T) {
	store, dev := newStore(t)

	if err := store.Save(models.ConfigRecord{SSID: "net", City: "Hanoi", TimezoneOffset: 25200}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	dev.Corrupt(repository.RecordSize - 1) // last signature byte

	out := store.Load()
	if out.ValidSignature {
		t.Fatalf("corrupted signature must not validate")
	}
	if out.SSID != "" || out.City != "" || out.TimezoneOffset != 0 {
		t.Fatalf("invalid record must decode empty, got %+v", out)
	}
}

func TestConfigFlash_NegativeTimezoneOffset(t *testing.T) {
	store, _ := newStore(t)

	if err := store.Save(models.ConfigRecord{SSID: "n", City: "c", TimezoneOffset: -5 * 3600}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := store.Load().TimezoneOffset; got != -5*3600 {
		t.Fatalf("TimezoneOffset = %d, want %d", got, -5*3600)
	}
}

// A save interrupted before the signature write must read back invalid.
func TestConfigFlash_InterruptedSaveReadsInvalid(t *testing.T) {
	store, dev := newStore(t)

	if err := store.Save(models.ConfigRecord{SSID: "old", City: "Hanoi"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Simulate the first step of a new save: signature invalidated, fields
	// not yet rewritten, power lost.
	if _, err := dev.WriteAt(make([]byte, 4), int64(repository.RecordSize-4)); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	out := store.Load()
	if out.ValidSignature || out.SSID != "" {
		t.Fatalf("interrupted save must read back invalid, got %+v", out)
	}
}
