package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jonkt/weatherlight/internal/api"
	"github.com/jonkt/weatherlight/internal/busylight"
	"github.com/jonkt/weatherlight/internal/config"
	"github.com/jonkt/weatherlight/internal/hid"
	"github.com/jonkt/weatherlight/internal/lifx"
	"github.com/jonkt/weatherlight/internal/logging"
	"github.com/jonkt/weatherlight/internal/service"
	"github.com/jonkt/weatherlight/internal/weather"
	"github.com/jonkt/weatherlight/lights"
)

var logger = logging.New("main")

func main() {
	defer logger.Sync()

	envCfg, err := config.ParseEnv()
	if err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to parse environment variables")
	}
	logging.SetLevel(envCfg.LogLevel)

	logger.With(zap.Any("config", envCfg)).Info("Starting WeatherLight")
	logger.Info("Adjust LIGHT_TYPE to pick the light backend. Valid values are: [BUSYLIGHT, LIFX]")
	logger.Info("Adjust REFRESH_INTERVAL to change how often the weather is fetched.")
	logger.Info("Adjust LISTEN_ADDR to move the local API.")
	logger.Info("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(context.Background())

	configPath := envCfg.ConfigPath
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	store := config.NewStore(configPath)

	light := newLightService(ctx, envCfg)

	weatherSvc := weather.New()
	pipeline := service.New(store, weatherSvc, light, envCfg.RefreshInterval)
	go pipeline.Run(ctx)

	router := api.NewRouter(store, pipeline, weatherSvc, light)
	server := &http.Server{Addr: envCfg.ListenAddr, Handler: router.Handler()}
	go func() {
		logger.With(zap.String("addr", envCfg.ListenAddr)).Info("API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.With(zap.Error(err)).Fatal("API server failed")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown
	logger.Info("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.With(zap.Error(err)).Warn("API shutdown was not clean")
	}

	light.Off()
	if closer, ok := light.(interface{ Close() }); ok {
		closer.Close()
	}
}

func newLightService(ctx context.Context, envCfg config.Env) lights.Service {
	switch envCfg.LightType {
	case config.LightTypeBusylight:
		mgr, err := hid.NewManager()
		if err != nil {
			logger.With(zap.Error(err)).Warn("HID transport unavailable - continuing without busylight")
			mgr = nil
		}
		return busylight.New(ctx, mgr)
	case config.LightTypeLifx:
		l, err := lifx.NewLifx(ctx, lifx.Config{GroupName: envCfg.LifxGroupName})
		if err != nil {
			logger.With(zap.Error(err)).Fatal("Failed to create LIFX light service")
		}
		return l
	default:
		logger.Fatalf("unknown light type: %v", envCfg.LightType)
		return nil
	}
}
