package domain

import "sort"

type PowerState string

const (
	PowerDisabled  PowerState = "disabled"
	PowerEnabling  PowerState = "enabling"
	PowerEnabled   PowerState = "enabled"
	PowerDisabling PowerState = "disabling"
)

// Settled returns the resting state that matches an engine-confirmed on/off value.
func Settled(enabled bool) PowerState {
	if enabled {
		return PowerEnabled
	}
	return PowerDisabled
}

type SessionState struct {
	// Enabled is the last on/off value confirmed by the engine.
	Enabled           bool       `json:"enabled"`
	Power             PowerState `json:"power"`
	Syncing           bool       `json:"syncing"`
	ResettingOdometer bool       `json:"resetting_odometer"`
	Odometer          float64    `json:"odometer"`
	FollowsUser       bool       `json:"follows_user"`
	ShowsUserLocation bool       `json:"shows_user_location"`
}

// ViewModel is one immutable snapshot of everything the map renders. Collections are
// copied on write by the reconciler, so a published snapshot can be shared freely.
type ViewModel struct {
	Markers      []LocationMarker             `json:"markers"`
	MarkerIDs    map[string]struct{}          `json:"-"`
	Path         []Coordinate                 `json:"path"`
	Geofences    map[string]GeofenceRegion    `json:"geofences"`
	Hits         map[string]GeofenceHitRecord `json:"hits"`
	HitOrder     []string                     `json:"hit_order"`
	CrossingKeys map[string]struct{}          `json:"-"`
	Stationary   StationaryRegion             `json:"stationary"`
	LastFix      Coordinate                   `json:"center_coordinate"`
	Session      SessionState                 `json:"session"`
	Settings     Settings                     `json:"settings"`

	markerTail *tail[LocationMarker]
	pathTail   *tail[Coordinate]
}

func NewViewModel() ViewModel {
	return ViewModel{
		MarkerIDs:    map[string]struct{}{},
		Geofences:    map[string]GeofenceRegion{},
		Hits:         map[string]GeofenceHitRecord{},
		CrossingKeys: map[string]struct{}{},
		Session: SessionState{
			Power:             PowerDisabled,
			FollowsUser:       true,
			ShowsUserLocation: true,
		},
		Settings: Settings{FollowsUserLocation: true},
	}
}

// GeofenceList returns the active regions ordered by identifier.
func (vm ViewModel) GeofenceList() []GeofenceRegion {
	out := make([]GeofenceRegion, 0, len(vm.Geofences))
	for _, g := range vm.Geofences {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

// HitList returns hit records in the order each region was first crossed.
func (vm ViewModel) HitList() []GeofenceHitRecord {
	out := make([]GeofenceHitRecord, 0, len(vm.HitOrder))
	for _, id := range vm.HitOrder {
		if hit, ok := vm.Hits[id]; ok {
			out = append(out, hit)
		}
	}
	return out
}
