package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/geofence-map/module/core/domain"
	"github.com/nandanugg/geofence-map/module/core/service"
)

type snapshotReader interface {
	Snapshot() domain.ViewModel
}

type commands interface {
	ToggleEnabled()
	ResetOdometer()
	EmailLog()
	Sync()
	DestroyLocations()
	AddGeofence(geofence domain.GeofenceDescriptor) error
	ToggleMapSetting(name string) error
	UpdateSetting(name string, value any) error
	PanMap()
	OnAppState(background bool)
}

type promptQueue interface {
	Pending() []service.Prompt
	Resolve(id string, accept bool) error
}

type mapResponse struct {
	Center            domain.Coordinate          `json:"center"`
	FollowsUser       bool                       `json:"follows_user"`
	ShowsUserLocation bool                       `json:"shows_user_location"`
	Stationary        *domain.StationaryRegion   `json:"stationary,omitempty"`
	Markers           []domain.LocationMarker    `json:"markers"`
	Polyline          []domain.Coordinate        `json:"polyline"`
	Geofences         []domain.GeofenceRegion    `json:"geofences"`
	Hits              []domain.GeofenceHitRecord `json:"hits"`
}

type settingRequest struct {
	Value any `json:"value"`
}

type appStateRequest struct {
	Background bool `json:"background"`
}

type promptRequest struct {
	Accept bool `json:"accept"`
}

// MapHandler exposes the view model read-only and accepts user intents. Intents are
// posted onto the loop and answered with 202 before the engine has confirmed anything.
type MapHandler struct {
	store   snapshotReader
	cmds    commands
	prompts promptQueue
	post    func(func())
}

func NewMapHandler(store snapshotReader, cmds commands, prompts promptQueue, post func(func())) *MapHandler {
	return &MapHandler{store: store, cmds: cmds, prompts: prompts, post: post}
}

func (h *MapHandler) Register(r *gin.RouterGroup) {
	r.GET("/map", h.GetMap)
	r.GET("/session", h.GetSession)
	r.POST("/session/toggle", h.ToggleEnabled)
	r.POST("/session/app-state", h.SetAppState)
	r.POST("/map/pan", h.PanMap)
	r.POST("/commands/:command", h.RunCommand)
	r.POST("/geofences", h.AddGeofence)
	r.PUT("/settings/:name", h.UpdateSetting)
	r.POST("/settings/:name/toggle", h.ToggleSetting)
	r.GET("/prompts", h.GetPrompts)
	r.POST("/prompts/:id", h.ResolvePrompt)
}

func (h *MapHandler) GetMap(c *gin.Context) {
	c.JSON(http.StatusOK, toMapResponse(h.store.Snapshot()))
}

func (h *MapHandler) GetSession(c *gin.Context) {
	vm := h.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"session":  vm.Session,
		"settings": vm.Settings,
	})
}

func (h *MapHandler) ToggleEnabled(c *gin.Context) {
	h.post(h.cmds.ToggleEnabled)
	accepted(c)
}

func (h *MapHandler) SetAppState(c *gin.Context) {
	var req appStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid app state"})
		return
	}
	h.post(func() { h.cmds.OnAppState(req.Background) })
	accepted(c)
}

func (h *MapHandler) PanMap(c *gin.Context) {
	h.post(h.cmds.PanMap)
	accepted(c)
}

func (h *MapHandler) RunCommand(c *gin.Context) {
	var fn func()
	switch c.Param("command") {
	case "reset-odometer":
		fn = h.cmds.ResetOdometer
	case "email-log":
		fn = h.cmds.EmailLog
	case "sync":
		fn = h.cmds.Sync
	case "destroy-locations":
		fn = h.cmds.DestroyLocations
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown command"})
		return
	}
	h.post(fn)
	accepted(c)
}

func (h *MapHandler) AddGeofence(c *gin.Context) {
	var geofence domain.GeofenceDescriptor
	if err := c.ShouldBindJSON(&geofence); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid geofence"})
		return
	}
	if err := geofence.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.post(func() {
		// Validated above; the dispatcher only fails on invalid descriptors.
		_ = h.cmds.AddGeofence(geofence)
	})
	accepted(c)
}

func (h *MapHandler) UpdateSetting(c *gin.Context) {
	name := c.Param("name")
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid setting"})
		return
	}
	if _, ok := h.store.Snapshot().Settings.With(name, req.Value); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown setting or wrong value type"})
		return
	}

	value := req.Value
	h.post(func() {
		if err := h.cmds.UpdateSetting(name, value); err != nil {
			log.Printf("update setting %s: %v", name, err)
		}
	})
	accepted(c)
}

func (h *MapHandler) ToggleSetting(c *gin.Context) {
	name := c.Param("name")
	if _, ok := h.store.Snapshot().Settings.Bool(name); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown setting"})
		return
	}

	h.post(func() {
		if err := h.cmds.ToggleMapSetting(name); err != nil {
			log.Printf("toggle setting %s: %v", name, err)
		}
	})
	accepted(c)
}

func (h *MapHandler) GetPrompts(c *gin.Context) {
	c.JSON(http.StatusOK, h.prompts.Pending())
}

func (h *MapHandler) ResolvePrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prompt answer"})
		return
	}

	if err := h.prompts.Resolve(c.Param("id"), req.Accept); err != nil {
		if errors.Is(err, service.ErrPromptNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "prompt not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve prompt"})
		return
	}
	accepted(c)
}

func accepted(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// toMapResponse applies the overlay settings: hidden markers, hidden polyline, and
// geofence hits only when enabled.
func toMapResponse(vm domain.ViewModel) mapResponse {
	resp := mapResponse{
		Center:            vm.LastFix,
		FollowsUser:       vm.Session.FollowsUser,
		ShowsUserLocation: vm.Session.ShowsUserLocation,
		Markers:           []domain.LocationMarker{},
		Polyline:          []domain.Coordinate{},
		Geofences:         vm.GeofenceList(),
		Hits:              []domain.GeofenceHitRecord{},
	}
	if vm.Stationary.Visible() {
		stationary := vm.Stationary
		resp.Stationary = &stationary
	}
	if !vm.Settings.HideMarkers && vm.Markers != nil {
		resp.Markers = vm.Markers
	}
	if !vm.Settings.HidePolyline && vm.Path != nil {
		resp.Polyline = vm.Path
	}
	if vm.Settings.ShowGeofenceHits {
		resp.Hits = vm.HitList()
	}
	return resp
}
