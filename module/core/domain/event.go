package domain

type EventKind string

// Kinds delivered by the tracking engine.
const (
	EventLocation        EventKind = "location"
	EventGeofence        EventKind = "geofence"
	EventGeofencesChange EventKind = "geofenceschange"
	EventMotionChange    EventKind = "motionchange"
	EventHeartbeat       EventKind = "heartbeat"
	EventSchedule        EventKind = "schedule"
	EventHTTP            EventKind = "http"
	EventError           EventKind = "error"
)

// Kinds produced locally by the dispatcher and lifecycle hooks.
const (
	EventReset          EventKind = "reset"
	EventEngineState    EventKind = "enginestate"
	EventStopped        EventKind = "stopped"
	EventPowerRequested EventKind = "powerrequested"
	EventSyncState      EventKind = "syncstate"
	EventOdometerState  EventKind = "odometerstate"
	EventGeofenceAdded  EventKind = "geofenceadded"
	EventSettingsLoaded EventKind = "settingsloaded"
	EventSettingChanged EventKind = "settingchanged"
	EventAppState       EventKind = "appstate"
)

type Event interface {
	Kind() EventKind
}

type LocationEvent struct {
	Fix Fix
}

type GeofenceCrossingEvent struct {
	Identifier string
	Action     string
	Location   Fix
}

type GeofencesChangeEvent struct {
	On  []GeofenceDescriptor
	Off []string
}

type MotionChangeEvent struct {
	IsMoving bool
	Location Fix
}

type HeartbeatEvent struct {
	Location Fix
}

type ScheduleEvent struct {
	Enabled bool
}

type HTTPEvent struct {
	Status       int
	ResponseText string
}

type ErrorEvent struct {
	Message string
}

type ResetEvent struct{}

// EngineStateEvent carries the engine's authoritative on/off state from a configure
// or start confirmation.
type EngineStateEvent struct {
	Enabled bool
}

type StoppedEvent struct{}

type PowerRequestedEvent struct {
	Enable bool
}

type SyncStateEvent struct {
	Syncing bool
}

type OdometerStateEvent struct {
	Resetting bool
	Odometer  float64
}

type GeofenceAddedEvent struct {
	Geofence GeofenceDescriptor
}

type SettingsLoadedEvent struct {
	Settings Settings
}

type SettingChangedEvent struct {
	Name  string
	Value any
}

type AppStateEvent struct {
	Background bool
}

func (LocationEvent) Kind() EventKind         { return EventLocation }
func (GeofenceCrossingEvent) Kind() EventKind { return EventGeofence }
func (GeofencesChangeEvent) Kind() EventKind  { return EventGeofencesChange }
func (MotionChangeEvent) Kind() EventKind     { return EventMotionChange }
func (HeartbeatEvent) Kind() EventKind        { return EventHeartbeat }
func (ScheduleEvent) Kind() EventKind         { return EventSchedule }
func (HTTPEvent) Kind() EventKind             { return EventHTTP }
func (ErrorEvent) Kind() EventKind            { return EventError }
func (ResetEvent) Kind() EventKind            { return EventReset }
func (EngineStateEvent) Kind() EventKind      { return EventEngineState }
func (StoppedEvent) Kind() EventKind          { return EventStopped }
func (PowerRequestedEvent) Kind() EventKind   { return EventPowerRequested }
func (SyncStateEvent) Kind() EventKind        { return EventSyncState }
func (OdometerStateEvent) Kind() EventKind    { return EventOdometerState }
func (GeofenceAddedEvent) Kind() EventKind    { return EventGeofenceAdded }
func (SettingsLoadedEvent) Kind() EventKind   { return EventSettingsLoaded }
func (SettingChangedEvent) Kind() EventKind   { return EventSettingChanged }
func (AppStateEvent) Kind() EventKind         { return EventAppState }
