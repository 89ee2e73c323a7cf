package service

import (
	"fmt"
	"log"

	"github.com/nandanugg/geofence-map/module/core/domain"
	"github.com/nandanugg/geofence-map/observability"
)

// Engine is the command side of the background tracking engine. Every callback is
// delivered on the loop, and exactly one of onSuccess or onFailure fires per call.
type Engine interface {
	Configure(opts domain.EngineOptions, onSuccess func(domain.EngineState), onFailure func(error))
	Start(onSuccess func(domain.EngineState), onFailure func(error))
	Stop(onSuccess func(domain.EngineState), onFailure func(error))
	StartSchedule(onSuccess func(domain.EngineState), onFailure func(error))
	GetCount(onSuccess func(int), onFailure func(error))
	Sync(onSuccess func(int), onFailure func(error))
	DestroyLocations(onSuccess func(), onFailure func(error))
	SetOdometer(value float64, onSuccess func(), onFailure func(error))
	EmailLog(address string)
	AddGeofence(geofence domain.GeofenceDescriptor, onSuccess func(identifier string), onFailure func(error))
}

// Settings is the persisted user-settings collaborator. Callbacks arrive on the loop.
type Settings interface {
	GetState(onSuccess func(domain.Settings), onFailure func(error))
	Set(key string, value any)
}

// Notifier surfaces messages and confirmation prompts to the user.
type Notifier interface {
	Toast(message string)
	Confirm(title, message string, onConfirm func())
}

type viewModelStore interface {
	Apply(ev domain.Event) Result
	Snapshot() domain.ViewModel
}

// Dispatcher turns user intents into engine and settings calls. All methods must be
// called on the loop.
type Dispatcher struct {
	store    viewModelStore
	engine   Engine
	settings Settings
	notifier Notifier
}

func NewDispatcher(store viewModelStore, engine Engine, settings Settings, notifier Notifier) *Dispatcher {
	return &Dispatcher{
		store:    store,
		engine:   engine,
		settings: settings,
		notifier: notifier,
	}
}

// Init configures the engine and loads the persisted settings.
func (d *Dispatcher) Init(opts domain.EngineOptions) {
	d.engine.Configure(opts, func(state domain.EngineState) {
		log.Printf("configure success, enabled=%t", state.Enabled)
		d.store.Apply(domain.EngineStateEvent{Enabled: state.Enabled})
		d.store.Apply(domain.OdometerStateEvent{Odometer: state.Odometer})

		if len(state.Schedule) > 0 {
			d.engine.StartSchedule(func(domain.EngineState) {
				log.Printf("scheduler started")
			}, func(err error) {
				d.commandFailed("startSchedule", err, "")
			})
		}
	}, func(err error) {
		d.commandFailed("configure", err, "Configure failed: ")
	})

	d.settings.GetState(func(s domain.Settings) {
		d.store.Apply(domain.SettingsLoadedEvent{Settings: s})
	}, func(err error) {
		log.Printf("load settings error: %v", err)
	})
}

// ToggleEnabled requests the opposite of the state the session is in or heading to.
// The engine's confirmation settles the power state; a stop confirmation also clears
// the map.
func (d *Dispatcher) ToggleEnabled() {
	session := d.store.Snapshot().Session
	enable := !(session.Power == domain.PowerEnabling || session.Power == domain.PowerEnabled)

	d.store.Apply(domain.PowerRequestedEvent{Enable: enable})

	if enable {
		d.engine.Start(func(state domain.EngineState) {
			log.Printf("start success, enabled=%t", state.Enabled)
			d.store.Apply(domain.EngineStateEvent{Enabled: state.Enabled})
		}, func(err error) {
			d.commandFailed("start", err, "Start failed: ")
			d.settlePower()
		})
		return
	}

	d.engine.Stop(func(domain.EngineState) {
		log.Printf("stopped")
		d.store.Apply(domain.StoppedEvent{})
	}, func(err error) {
		d.commandFailed("stop", err, "Stop failed: ")
		d.settlePower()
	})
}

// settlePower returns the power machine to the last engine-confirmed state.
func (d *Dispatcher) settlePower() {
	d.store.Apply(domain.EngineStateEvent{Enabled: d.store.Snapshot().Session.Enabled})
}

func (d *Dispatcher) ResetOdometer() {
	previous := d.store.Snapshot().Session.Odometer
	d.store.Apply(domain.OdometerStateEvent{Resetting: true, Odometer: 0})

	d.engine.SetOdometer(0, func() {
		d.store.Apply(domain.OdometerStateEvent{Resetting: false, Odometer: 0})
		d.notifier.Toast("Reset odometer success")
	}, func(err error) {
		d.store.Apply(domain.OdometerStateEvent{Resetting: false, Odometer: previous})
		d.commandFailed("setOdometer", err, "Reset odometer failure: ")
	})
}

func (d *Dispatcher) EmailLog() {
	d.settings.GetState(func(s domain.Settings) {
		if s.Email == "" {
			log.Printf("email log: %v", ErrMissingEmail)
			d.notifier.Toast("Please enter an email address in Settings")
			return
		}
		d.engine.EmailLog(s.Email)
	}, func(err error) {
		log.Printf("email log settings error: %v", err)
		d.notifier.Toast("Email log failed: " + err.Error())
	})
}

// Sync uploads stored locations after the user confirms. The record count is fetched
// again after confirmation, since the engine may have synced or destroyed records
// while the prompt was open.
func (d *Dispatcher) Sync() {
	if d.store.Snapshot().Session.Syncing {
		log.Printf("sync: %v", ErrSyncInProgress)
		return
	}

	d.withRecords("Sync error: ", func(count int) {
		d.notifier.Confirm("Confirm Sync", fmt.Sprintf("Sync %d records?", count), func() {
			if d.store.Snapshot().Session.Syncing {
				log.Printf("sync: %v", ErrSyncInProgress)
				return
			}
			d.withRecords("Sync error: ", func(current int) {
				d.store.Apply(domain.SyncStateEvent{Syncing: true})
				d.engine.Sync(func(synced int) {
					if synced <= 0 {
						synced = current
					}
					d.store.Apply(domain.SyncStateEvent{Syncing: false})
					d.notifier.Toast(fmt.Sprintf("Sync success (%d records)", synced))
				}, func(err error) {
					d.store.Apply(domain.SyncStateEvent{Syncing: false})
					d.commandFailed("sync", err, "Sync error: ")
				})
			})
		})
	})
}

func (d *Dispatcher) DestroyLocations() {
	d.withRecords("Destroy locations error: ", func(count int) {
		d.notifier.Confirm("Confirm Delete", fmt.Sprintf("Destroy %d records?", count), func() {
			d.withRecords("Destroy locations error: ", func(current int) {
				d.engine.DestroyLocations(func() {
					d.notifier.Toast(fmt.Sprintf("Destroyed %d records", current))
				}, func(err error) {
					d.commandFailed("destroyLocations", err, "Destroy locations error: ")
				})
			})
		})
	})
}

// withRecords runs fn with the engine's record count, or tells the user the database
// is empty.
func (d *Dispatcher) withRecords(failurePrefix string, fn func(count int)) {
	d.engine.GetCount(func(count int) {
		if count <= 0 {
			log.Printf("%v", ErrLocationsDBEmpty)
			d.notifier.Toast("Locations database is empty")
			return
		}
		fn(count)
	}, func(err error) {
		d.commandFailed("getCount", err, failurePrefix)
	})
}

// AddGeofence registers a user-drawn region with the engine. The region only appears
// on the map once the engine accepts it.
func (d *Dispatcher) AddGeofence(geofence domain.GeofenceDescriptor) error {
	if err := geofence.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGeofence, err)
	}

	d.engine.AddGeofence(geofence, func(identifier string) {
		log.Printf("addGeofence success: %s", identifier)
		d.store.Apply(domain.GeofenceAddedEvent{Geofence: geofence})
	}, func(err error) {
		d.commandFailed("addGeofence", err, "")
	})
	return nil
}

// ToggleMapSetting flips one of the boolean map-overlay settings.
func (d *Dispatcher) ToggleMapSetting(name string) error {
	current, ok := d.store.Snapshot().Settings.Bool(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, name)
	}
	return d.UpdateSetting(name, !current)
}

// UpdateSetting persists a setting and applies it locally.
func (d *Dispatcher) UpdateSetting(name string, value any) error {
	if _, ok := d.store.Snapshot().Settings.With(name, value); !ok {
		return fmt.Errorf("%w: %s=%v", ErrUnknownSetting, name, value)
	}
	d.settings.Set(name, value)
	d.store.Apply(domain.SettingChangedEvent{Name: name, Value: value})
	return nil
}

// OnSettingChanged handles change notifications from the settings collaborator.
func (d *Dispatcher) OnSettingChanged(name string, value any) {
	d.store.Apply(domain.SettingChangedEvent{Name: name, Value: value})
}

// PanMap stops following the user once they drag the map.
func (d *Dispatcher) PanMap() {
	if err := d.UpdateSetting(domain.SettingFollowsUserLocation, false); err != nil {
		log.Printf("pan map: %v", err)
	}
}

func (d *Dispatcher) OnAppState(background bool) {
	d.store.Apply(domain.AppStateEvent{Background: background})
}

func (d *Dispatcher) commandFailed(command string, err error, toastPrefix string) {
	observability.EngineCommandFailures.WithLabelValues(command).Inc()
	log.Printf("%s error: %v", command, err)
	if toastPrefix != "" {
		d.notifier.Toast(toastPrefix + err.Error())
	}
}
