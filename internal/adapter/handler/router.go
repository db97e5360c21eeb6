package handler

import (
	"github.com/labstack/echo/v4"
)

// Router holds all handlers
type Router struct {
	searchHandler  *Search
	devicesHandler *Devices
	tagsHandler    *Tags
	healthHandler  *Health
	controlHandler *Control
}

// NewRouter creates a new router with all handlers
func NewRouter(search *Search, devices *Devices, tags *Tags, health *Health, control *Control) *Router {
	return &Router{
		searchHandler:  search,
		devicesHandler: devices,
		tagsHandler:    tags,
		healthHandler:  health,
		controlHandler: control,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthHandler.Check)
	e.GET("/search", rt.searchHandler.Search)
	e.GET("/audio/list", rt.devicesHandler.ListAudioDevices)
	e.GET("/vision/list", rt.devicesHandler.ListMonitors)
	e.POST("/vision/pause", rt.controlHandler.PauseVision)
	e.POST("/vision/resume", rt.controlHandler.ResumeVision)
	e.POST("/audio/pause", rt.controlHandler.PauseAudio)
	e.POST("/audio/resume", rt.controlHandler.ResumeAudio)
	e.POST("/tags/:content_type/:id", rt.tagsHandler.AddTags)
	e.DELETE("/tags/:content_type/:id", rt.tagsHandler.RemoveTags)
}
