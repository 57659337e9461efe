package handlers

import (
	"bytes"
	"context"
	"time"

	"statusboard/internal/models"
	"statusboard/internal/platform"
	"statusboard/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockStatus struct {
	status models.DeviceStatus
	errs   []string
	lucky  int
}

func (m *mockStatus) Get() models.DeviceStatus { return m.status }
func (m *mockStatus) SetLastError(msg string)  { m.errs = append(m.errs, msg) }
func (m *mockStatus) RequestLucky()            { m.lucky++ }

type mockConfig struct {
	rec     models.ConfigRecord
	saveErr error
	saved   []models.ConfigRecord
}

func (m *mockConfig) Get() models.ConfigRecord { return m.rec }

func (m *mockConfig) Save(c models.ConfigRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, c)
	return nil
}

type mockEventLog struct {
	resp       []models.DeviceEvent
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}

func (m *mockEventLog) Record(context.Context, string, string, any) {}

type mockUpdater struct {
	checkErr error
	etag     string
	pending  bool
	checks   int
	performs []string
}

func (m *mockUpdater) CheckForUpdate(context.Context) error {
	m.checks++
	return m.checkErr
}

func (m *mockUpdater) PendingTarget() (string, bool) { return m.etag, m.pending }

func (m *mockUpdater) PerformUpdate(etag string) { m.performs = append(m.performs, etag) }

type mockImage struct {
	begun     []int64
	buf       bytes.Buffer
	beginErr  error
	committed bool
	aborted   int
}

func (m *mockImage) Begin(size int64) error {
	if m.beginErr != nil {
		return m.beginErr
	}
	m.begun = append(m.begun, size)
	return nil
}

func (m *mockImage) Write(p []byte) (int, error) { return m.buf.Write(p) }
func (m *mockImage) Commit() error               { m.committed = true; return nil }
func (m *mockImage) Abort()                      { m.aborted++ }

// ---- Shared Test Helpers ----

type routerFixture struct {
	services *service.Service
	image    *mockImage
	power    *platform.SimPower
	router   *gin.Engine
}

func newTestRouter(s *service.Service, adminHash string) *routerFixture {
	f := &routerFixture{
		services: s,
		image:    &mockImage{},
		power:    &platform.SimPower{},
	}
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, f.image, f.power, adminHash, nil)
	f.router = h.InitRoutes()
	return f
}

func sampleStatus() models.DeviceStatus {
	return models.DeviceStatus{
		Mode: models.ModeNormal.String(),
		Weather: models.WeatherSnapshot{
			Temperature: "+28",
			Condition:   "Partly cloudy",
			Humidity:    "70%",
			Wind:        "3",
			Pressure:    "758",
			Valid:       true,
			FetchedAt:   time.Now().UTC(),
		},
		UpdatedAt: time.Now().UTC(),
	}
}
