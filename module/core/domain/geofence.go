package domain

import "fmt"

// GeofenceDescriptor is the engine's description of a monitored region. It is what
// "geofenceschange" carries in its on-set and what the user submits when adding one.
type GeofenceDescriptor struct {
	Identifier    string  `json:"identifier"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Radius        float64 `json:"radius"`
	NotifyOnEntry bool    `json:"notifyOnEntry"`
	NotifyOnExit  bool    `json:"notifyOnExit"`
}

func (d GeofenceDescriptor) Validate() error {
	if d.Identifier == "" {
		return fmt.Errorf("identifier: required")
	}
	if !(d.Radius > 0) {
		return fmt.Errorf("radius: must be positive")
	}
	return Coordinate{Latitude: d.Latitude, Longitude: d.Longitude}.Validate()
}

func (d GeofenceDescriptor) Center() Coordinate {
	return Coordinate{Latitude: d.Latitude, Longitude: d.Longitude}
}

type VisualState string

const (
	GeofenceActive    VisualState = "active"
	GeofenceTriggered VisualState = "triggered"
)

type GeofenceRegion struct {
	Identifier   string      `json:"identifier"`
	Center       Coordinate  `json:"center"`
	RadiusMeters float64     `json:"radius_meters"`
	VisualState  VisualState `json:"visual_state"`
}

type CrossingDirection string

const (
	CrossingEnter CrossingDirection = "ENTER"
	CrossingExit  CrossingDirection = "EXIT"
)

// ParseCrossingDirection maps an engine action onto a direction. DWELL and anything
// else the engine may report is not drawn.
func ParseCrossingDirection(action string) (CrossingDirection, bool) {
	switch CrossingDirection(action) {
	case CrossingEnter, CrossingExit:
		return CrossingDirection(action), true
	}
	return "", false
}

type CrossingEvent struct {
	Key            string            `json:"key"`
	Direction      CrossingDirection `json:"direction"`
	EdgeCoordinate Coordinate        `json:"edge_coordinate"`
	FixCoordinate  Coordinate        `json:"fix_coordinate"`
}

func CrossingKey(identifier string, direction CrossingDirection, sourceTimestamp string) string {
	return identifier + ":" + string(direction) + ":" + sourceTimestamp
}

type GeofenceHitRecord struct {
	Identifier     string          `json:"identifier"`
	RadiusMeters   float64         `json:"radius_meters"`
	Center         Coordinate      `json:"center"`
	CrossingEvents []CrossingEvent `json:"crossing_events"`
}
