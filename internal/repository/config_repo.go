package repository

import (
	"encoding/binary"
	"fmt"

	"statusboard/internal/models"
	"statusboard/internal/repository/flash"
)

// Flash layout of the configuration record. Offsets are fixed and must stay
// stable across firmware revisions: new fields get new offsets at the end,
// old images keep decoding for the fields they define.
//
// Each string field is one length byte followed by up to cap raw bytes.
// A length of 0 means absent; 0xFF is erased flash and also means absent.
const (
	capSSID     = 32
	capPassword = 64
	capCity     = 48
	capGreeting = 96
	capFirmware = 96
	capLucky    = 96
	capETag     = 48

	offSSID      = 0
	offPassword  = offSSID + 1 + capSSID          // 33
	offCity      = offPassword + 1 + capPassword  // 98
	offGreeting  = offCity + 1 + capCity          // 147
	offFirmware  = offGreeting + 1 + capGreeting  // 244
	offLucky     = offFirmware + 1 + capFirmware  // 341
	offETag      = offLucky + 1 + capLucky        // 438
	offTimezone  = offETag + 1 + capETag          // 487, int32 LE
	offSignature = offTimezone + 4                // 491, 4 ASCII bytes

	// RecordSize is the number of flash bytes the record occupies.
	RecordSize = offSignature + 4 // 495
)

// signature marks a fully written record. It is written only as the last
// step of Save, so a power loss mid-write reads back as "invalid" instead
// of silently corrupt.
var signature = [4]byte{'S', 'B', 'C', '1'}

type ConfigFlash struct {
	dev flash.Device
}

func NewConfigFlash(dev flash.Device) *ConfigFlash {
	return &ConfigFlash{dev: dev}
}

// Load decodes the persisted record. It never fails: a missing, erased or
// partially written record yields empty fields and a zero offset with
// ValidSignature=false.
func (r *ConfigFlash) Load() models.ConfigRecord {
	buf := make([]byte, RecordSize)
	if _, err := r.dev.ReadAt(buf, 0); err != nil {
		return models.ConfigRecord{}
	}
	if [4]byte(buf[offSignature:offSignature+4]) != signature {
		return models.ConfigRecord{}
	}
	return models.ConfigRecord{
		SSID:            decodeString(buf, offSSID, capSSID),
		Password:        decodeString(buf, offPassword, capPassword),
		City:            decodeString(buf, offCity, capCity),
		GreetingFeedURL: decodeString(buf, offGreeting, capGreeting),
		FirmwareURL:     decodeString(buf, offFirmware, capFirmware),
		LuckyImageURL:   decodeString(buf, offLucky, capLucky),
		FirmwareETag:    decodeString(buf, offETag, capETag),
		TimezoneOffset:  int32(binary.LittleEndian.Uint32(buf[offTimezone:])),
		ValidSignature:  true,
	}
}

// Save writes the record in three steps: invalidate the signature, write
// every field, then write the signature. Over-length fields are truncated
// to their capacity rather than rejected.
func (r *ConfigFlash) Save(c models.ConfigRecord) error {
	if err := r.writeAt(make([]byte, 4), offSignature); err != nil {
		return fmt.Errorf("invalidate signature: %w", err)
	}

	buf := make([]byte, offSignature)
	encodeString(buf, offSSID, capSSID, c.SSID)
	encodeString(buf, offPassword, capPassword, c.Password)
	encodeString(buf, offCity, capCity, c.City)
	encodeString(buf, offGreeting, capGreeting, c.GreetingFeedURL)
	encodeString(buf, offFirmware, capFirmware, c.FirmwareURL)
	encodeString(buf, offLucky, capLucky, c.LuckyImageURL)
	encodeString(buf, offETag, capETag, c.FirmwareETag)
	binary.LittleEndian.PutUint32(buf[offTimezone:], uint32(c.TimezoneOffset))
	if err := r.writeAt(buf, 0); err != nil {
		return fmt.Errorf("write config fields: %w", err)
	}

	if err := r.writeAt(signature[:], offSignature); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}
	return nil
}

func (r *ConfigFlash) writeAt(p []byte, off int) error {
	_, err := r.dev.WriteAt(p, int64(off))
	return err
}

func encodeString(buf []byte, off, capacity int, s string) {
	b := []byte(s)
	if len(b) > capacity {
		b = b[:capacity]
	}
	buf[off] = byte(len(b))
	copy(buf[off+1:], b)
}

func decodeString(buf []byte, off, capacity int) string {
	n := int(buf[off])
	if n == 0 || n == 0xFF || n > capacity {
		return ""
	}
	return string(buf[off+1 : off+1+n])
}
