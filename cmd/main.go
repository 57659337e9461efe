package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"statusboard/internal/handlers"
	"statusboard/internal/logger"
	"statusboard/internal/platform"
	"statusboard/internal/repository"
	"statusboard/internal/repository/db"
	"statusboard/internal/repository/flash"
	"statusboard/internal/server"
	"statusboard/internal/service"
	"statusboard/internal/transport"

	"github.com/spf13/viper"
)

// defaultLoopTick is the button sampling cadence; press debouncing needs a
// few samples inside its 50ms window.
const defaultLoopTick = 10 * time.Millisecond

const defaultImageCapacity = 4 << 20

func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// open the persistent stores
	dev, err := openFlash(log)
	if err != nil {
		log.Fatalw("failed to open config store", "err", err)
	}
	defer func() {
		if cerr := dev.Close(); cerr != nil {
			log.Errorw("failed to close config store", "err", cerr)
		}
	}()

	eventDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := eventDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(dev, eventDB)
	power := platform.HostPower{Exit: os.Exit}
	image := platform.NewFileImage(
		stringOr("firmware.path", "firmware.bin"),
		int64Or("firmware.capacity", defaultImageCapacity),
	)

	services := service.NewService(service.Deps{
		Repos:   repos,
		Button:  openButton(log),
		Display: &platform.SimDisplay{},
		Radio:   platform.ExecRadio{},
		Power:   power,
		Image:   image,
		Dialer:  transport.TLSDialer{},
		Log:     log,
		Opts: service.Options{
			WeatherHost:         viper.GetString("weather.host"),
			DefaultCity:         viper.GetString("weather.city"),
			APSSID:              viper.GetString("portal.ap_ssid"),
			UpdateCheckInterval: viper.GetDuration("update.check_interval"),
		},
	})
	apiHandler := handlers.NewHandler(services, image, power,
		viper.GetString("portal.admin_password_hash"), log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// trim old events, then start the control loop
	if err := repos.Events.Prune(ctx); err != nil {
		log.Warnw("event prune failed", "err", err)
	}
	mode := services.Loop.Boot(ctx)
	log.Infow("control loop starting", "mode", mode.String())
	go services.Loop.Run(ctx, defaultLoopTick)

	// start HTTP portal
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

func stringOr(key, def string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return def
}

func int64Or(key string, def int64) int64 {
	if v := viper.GetInt64(key); v > 0 {
		return v
	}
	return def
}

// openFlash maps the fixed-layout config record onto a small backing file.
func openFlash(log *logger.Logger) (*flash.FileDevice, error) {
	path := stringOr("flash.path", "statusboard.flash")
	log.Infow("opening config store", "path", path, "size", repository.RecordSize)
	return flash.OpenFile(path, repository.RecordSize)
}

// openDB initializes the SQLite event log using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "statusboard.db")
		dbPath = "statusboard.db"
	}
	return db.InitDB(dbPath)
}

// openButton prefers the configured GPIO line and falls back to the
// simulated button for desktop runs.
func openButton(log *logger.Logger) platform.Button {
	name := viper.GetString("button.gpio")
	if name == "" {
		log.Infow("button.gpio not set; using simulated button")
		return &platform.SimButton{}
	}
	b, err := platform.OpenButton(name)
	if err != nil {
		log.Warnw("gpio button unavailable; using simulated button", "pin", name, "err", err)
		return &platform.SimButton{}
	}
	log.Infow("gpio button ready", "pin", name)
	return b
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
