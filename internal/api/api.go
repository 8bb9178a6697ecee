// Package api exposes the pipeline over HTTP: settings, weather state,
// device info, and the manual override, plus health and metrics endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jonkt/weatherlight/internal/busylight"
	"github.com/jonkt/weatherlight/internal/config"
	"github.com/jonkt/weatherlight/internal/logging"
	"github.com/jonkt/weatherlight/internal/service"
	"github.com/jonkt/weatherlight/internal/weather"
	"github.com/jonkt/weatherlight/lights"
)

var logger = logging.New("api")

// Locator resolves and validates locations without running the pipeline.
type Locator interface {
	DetectLocation(ctx context.Context) (*weather.Location, error)
	ValidateLocation(ctx context.Context, location string) weather.ValidationResult
}

// DeviceDescriber is implemented by light backends that can report the
// hardware behind them, such as the busylight controller.
type DeviceDescriber interface {
	Device() (busylight.DeviceDescriptor, bool)
}

type deviceInfo struct {
	Product   string `json:"product"`
	Path      string `json:"path"`
	VendorID  uint16 `json:"vendorId"`
	ProductID uint16 `json:"productId"`
	Protocol  string `json:"protocol"`
}

// Router holds the Gin engine and its dependencies.
type Router struct {
	engine  *gin.Engine
	store   *config.Store
	svc     *service.Service
	locator Locator
	light   lights.Service
}

func NewRouter(store *config.Store, svc *service.Service, locator Locator, light lights.Service) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	r := &Router{
		engine:  engine,
		store:   store,
		svc:     svc,
		locator: locator,
		light:   light,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.health)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/settings", r.getSettings)
		v1.PUT("/settings", r.putSettings)
		v1.GET("/weather", r.getWeather)
		v1.GET("/status", r.getStatus)
		v1.GET("/device", r.getDevice)
		v1.POST("/refresh", r.postRefresh)
		v1.POST("/manual", r.postManualMode)
		v1.POST("/manual/state", r.postManualState)
		v1.GET("/location/detect", r.detectLocation)
		v1.GET("/location/validate", r.validateLocation)
	}
}

// Handler returns the router as a plain http.Handler.
func (r *Router) Handler() http.Handler {
	return r.engine
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := logger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)))
		switch {
		case status >= 500:
			entry.Error("Request")
		case status >= 400:
			entry.Warn("Request")
		default:
			entry.Debug("Request")
		}
	}
}

func (r *Router) health(c *gin.Context) {
	light := "disconnected"
	if r.light.Connected() {
		light = "connected"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"light":     light,
		"timestamp": time.Now().UTC(),
	})
}

func (r *Router) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, r.store.Get())
}

func (r *Router) putSettings(c *gin.Context) {
	var next config.Settings
	if err := c.ShouldBindJSON(&next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := r.store.Update(next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r.svc.RefreshNow()
	c.JSON(http.StatusOK, r.store.Get())
}

func (r *Router) getWeather(c *gin.Context) {
	c.JSON(http.StatusOK, r.svc.Weather())
}

func (r *Router) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, r.svc.Snapshot())
}

func (r *Router) getDevice(c *gin.Context) {
	describer, ok := r.light.(DeviceDescriber)
	if !ok {
		c.JSON(http.StatusOK, nil)
		return
	}
	desc, ok := describer.Device()
	if !ok {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, deviceInfo{
		Product:   desc.Product,
		Path:      desc.Path,
		VendorID:  desc.VendorID,
		ProductID: desc.ProductID,
		Protocol:  desc.Protocol.String(),
	})
}

func (r *Router) postRefresh(c *gin.Context) {
	r.svc.RefreshNow()
	c.Status(http.StatusAccepted)
}

type manualModeRequest struct {
	Enabled bool `json:"enabled"`
}

func (r *Router) postManualMode(c *gin.Context) {
	var req manualModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r.svc.SetManualMode(req.Enabled)
	c.Status(http.StatusNoContent)
}

func (r *Router) postManualState(c *gin.Context) {
	var req service.ManualState
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r.svc.ApplyManual(req)
	c.Status(http.StatusNoContent)
}

func (r *Router) detectLocation(c *gin.Context) {
	loc, err := r.locator.DetectLocation(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (r *Router) validateLocation(c *gin.Context) {
	location := c.Query("location")
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location query parameter required"})
		return
	}
	c.JSON(http.StatusOK, r.locator.ValidateLocation(c.Request.Context(), location))
}
