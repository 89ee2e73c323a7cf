package service

import (
	"fmt"
	"slices"

	"github.com/nandanugg/geofence-map/module/core/domain"
	"github.com/nandanugg/geofence-map/module/core/geo"
)

// DefaultStationaryRadius is the radius drawn around the device while it is stationary.
const DefaultStationaryRadius = 200

// Result describes what a reduction did. Err explains why all or part of an event was
// ignored; it is informational and never means the snapshot is inconsistent.
type Result struct {
	Changed bool
	Err     error
}

// Reconciler folds tracking events into view-model snapshots. Reduce never mutates the
// snapshot it is given.
type Reconciler struct {
	stationaryRadius float64
}

func NewReconciler(stationaryRadius float64) *Reconciler {
	if !(stationaryRadius >= 0) {
		stationaryRadius = DefaultStationaryRadius
	}
	return &Reconciler{stationaryRadius: stationaryRadius}
}

func (r *Reconciler) Reduce(vm domain.ViewModel, ev domain.Event) (domain.ViewModel, Result) {
	switch e := ev.(type) {
	case domain.LocationEvent:
		return r.onLocation(vm, e)
	case domain.GeofencesChangeEvent:
		return r.onGeofencesChange(vm, e)
	case domain.GeofenceCrossingEvent:
		return r.onCrossing(vm, e)
	case domain.MotionChangeEvent:
		return r.onMotionChange(vm, e)
	case domain.ScheduleEvent:
		return withSession(vm, func(s *domain.SessionState) {
			s.Enabled = e.Enabled
			s.Power = domain.Settled(e.Enabled)
		})
	case domain.EngineStateEvent:
		return withSession(vm, func(s *domain.SessionState) {
			s.Enabled = e.Enabled
			s.Power = domain.Settled(e.Enabled)
		})
	case domain.PowerRequestedEvent:
		return withSession(vm, func(s *domain.SessionState) {
			s.Power = domain.PowerDisabling
			if e.Enable {
				s.Power = domain.PowerEnabling
			}
		})
	case domain.StoppedEvent:
		next, _ := r.onReset(vm)
		next, _ = withSession(next, func(s *domain.SessionState) {
			s.Enabled = false
			s.Power = domain.PowerDisabled
		})
		return next, Result{Changed: true}
	case domain.ResetEvent:
		return r.onReset(vm)
	case domain.SyncStateEvent:
		return withSession(vm, func(s *domain.SessionState) { s.Syncing = e.Syncing })
	case domain.OdometerStateEvent:
		return withSession(vm, func(s *domain.SessionState) {
			s.ResettingOdometer = e.Resetting
			s.Odometer = e.Odometer
		})
	case domain.AppStateEvent:
		return withSession(vm, func(s *domain.SessionState) { s.ShowsUserLocation = !e.Background })
	case domain.GeofenceAddedEvent:
		return r.onGeofencesChange(vm, domain.GeofencesChangeEvent{On: []domain.GeofenceDescriptor{e.Geofence}})
	case domain.SettingsLoadedEvent:
		return r.onSettingsLoaded(vm, e)
	case domain.SettingChangedEvent:
		return r.onSettingChanged(vm, e)
	case domain.HeartbeatEvent, domain.HTTPEvent, domain.ErrorEvent:
		return vm, Result{}
	}
	return vm, Result{Err: fmt.Errorf("%w: %T", ErrUnhandledEvent, ev)}
}

func (r *Reconciler) onLocation(vm domain.ViewModel, e domain.LocationEvent) (domain.ViewModel, Result) {
	fix := e.Fix
	if err := fix.Coords.Validate(); err != nil {
		return vm, Result{Err: fmt.Errorf("location %s: %w", fix.UUID, err)}
	}
	vm.LastFix = fix.Coords
	if fix.Sample {
		return vm, Result{Changed: true}
	}
	if fix.UUID != "" {
		if _, dup := vm.MarkerIDs[fix.UUID]; dup {
			return vm, Result{Changed: true, Err: fmt.Errorf("location %s: already recorded", fix.UUID)}
		}
		ids := cloneSet(vm.MarkerIDs, 1)
		ids[fix.UUID] = struct{}{}
		vm.MarkerIDs = ids
	}

	vm = vm.AppendFix(domain.LocationMarker{
		ID:             fix.UUID,
		TimestampLabel: fix.Timestamp,
		Coordinate:     fix.Coords,
	})
	return vm, Result{Changed: true}
}

// onGeofencesChange applies removals before additions, so an identifier present in both
// sets is re-created fresh.
func (r *Reconciler) onGeofencesChange(vm domain.ViewModel, e domain.GeofencesChangeEvent) (domain.ViewModel, Result) {
	geofences := cloneMap(vm.Geofences, len(e.On))
	changed := false

	for _, id := range e.Off {
		if _, ok := geofences[id]; ok {
			delete(geofences, id)
			changed = true
		}
	}

	var invalid []string
	for _, d := range e.On {
		if err := d.Validate(); err != nil {
			invalid = append(invalid, fmt.Sprintf("%q: %v", d.Identifier, err))
			continue
		}
		if _, ok := geofences[d.Identifier]; ok {
			continue
		}
		geofences[d.Identifier] = domain.GeofenceRegion{
			Identifier:   d.Identifier,
			Center:       d.Center(),
			RadiusMeters: d.Radius,
			VisualState:  domain.GeofenceActive,
		}
		changed = true
	}

	var res Result
	if len(invalid) > 0 {
		res.Err = fmt.Errorf("%w: %v", ErrInvalidGeofence, invalid)
	}
	if !changed {
		return vm, res
	}
	vm.Geofences = geofences
	res.Changed = true
	return vm, res
}

func (r *Reconciler) onCrossing(vm domain.ViewModel, e domain.GeofenceCrossingEvent) (domain.ViewModel, Result) {
	region, ok := vm.Geofences[e.Identifier]
	if !ok {
		return vm, Result{Err: fmt.Errorf("%w: %s", ErrUnknownGeofence, e.Identifier)}
	}
	direction, ok := domain.ParseCrossingDirection(e.Action)
	if !ok {
		return vm, Result{Err: fmt.Errorf("%w: %s %q", ErrUnsupportedAction, e.Identifier, e.Action)}
	}
	key := domain.CrossingKey(e.Identifier, direction, e.Location.Timestamp)
	if _, dup := vm.CrossingKeys[key]; dup {
		return vm, Result{Err: fmt.Errorf("%w: %s", ErrDuplicateCrossing, key)}
	}

	fix := e.Location.Coords
	bearing, err := geo.BearingDegrees(region.Center, fix)
	if err != nil {
		return vm, Result{Err: fmt.Errorf("crossing %s: %w", key, err)}
	}
	edge, err := geo.DestinationPoint(region.Center, region.RadiusMeters, bearing)
	if err != nil {
		return vm, Result{Err: fmt.Errorf("crossing %s: %w", key, err)}
	}

	geofences := cloneMap(vm.Geofences, 0)
	region.VisualState = domain.GeofenceTriggered
	geofences[region.Identifier] = region

	hits := cloneMap(vm.Hits, 1)
	hit, ok := hits[e.Identifier]
	if !ok {
		hit = domain.GeofenceHitRecord{
			Identifier:   region.Identifier,
			RadiusMeters: region.RadiusMeters,
			Center:       region.Center,
		}
		vm.HitOrder = append(slices.Clip(vm.HitOrder), region.Identifier)
	}
	hit.CrossingEvents = append(slices.Clip(hit.CrossingEvents), domain.CrossingEvent{
		Key:            key,
		Direction:      direction,
		EdgeCoordinate: edge,
		FixCoordinate:  fix,
	})
	hits[e.Identifier] = hit

	keys := cloneSet(vm.CrossingKeys, 1)
	keys[key] = struct{}{}

	vm.Geofences = geofences
	vm.Hits = hits
	vm.CrossingKeys = keys
	return vm, Result{Changed: true}
}

func (r *Reconciler) onMotionChange(vm domain.ViewModel, e domain.MotionChangeEvent) (domain.ViewModel, Result) {
	next := domain.StationaryRegion{}
	if !e.IsMoving {
		next = domain.StationaryRegion{
			RadiusMeters:    r.stationaryRadius,
			Center:          e.Location.Coords,
			SampleTimestamp: e.Location.Timestamp,
		}
	}
	if next == vm.Stationary {
		return vm, Result{}
	}
	vm.Stationary = next
	return vm, Result{Changed: true}
}

// onReset clears everything collected from the engine. Settings and the session
// survive a reset.
func (r *Reconciler) onReset(vm domain.ViewModel) (domain.ViewModel, Result) {
	fresh := domain.NewViewModel()
	fresh.LastFix = vm.LastFix
	fresh.Session = vm.Session
	fresh.Settings = vm.Settings
	return fresh, Result{Changed: true}
}

func (r *Reconciler) onSettingsLoaded(vm domain.ViewModel, e domain.SettingsLoadedEvent) (domain.ViewModel, Result) {
	if vm.Settings == e.Settings && vm.Session.FollowsUser == e.Settings.FollowsUserLocation {
		return vm, Result{}
	}
	vm.Settings = e.Settings
	vm.Session.FollowsUser = e.Settings.FollowsUserLocation
	return vm, Result{Changed: true}
}

func (r *Reconciler) onSettingChanged(vm domain.ViewModel, e domain.SettingChangedEvent) (domain.ViewModel, Result) {
	settings, ok := vm.Settings.With(e.Name, e.Value)
	if !ok {
		return vm, Result{Err: fmt.Errorf("%w: %s=%v", ErrUnknownSetting, e.Name, e.Value)}
	}
	session := vm.Session
	if e.Name == domain.SettingFollowsUserLocation {
		session.FollowsUser = settings.FollowsUserLocation
	}
	if settings == vm.Settings && session == vm.Session {
		return vm, Result{}
	}
	vm.Settings = settings
	vm.Session = session
	return vm, Result{Changed: true}
}

func withSession(vm domain.ViewModel, fn func(*domain.SessionState)) (domain.ViewModel, Result) {
	next := vm.Session
	fn(&next)
	if next == vm.Session {
		return vm, Result{}
	}
	vm.Session = next
	return vm, Result{Changed: true}
}

func cloneMap[K comparable, V any](m map[K]V, extra int) map[K]V {
	out := make(map[K]V, len(m)+extra)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSet(m map[string]struct{}, extra int) map[string]struct{} {
	return cloneMap(m, extra)
}
