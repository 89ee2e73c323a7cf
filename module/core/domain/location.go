package domain

import "fmt"

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) Validate() error {
	if !(c.Latitude >= -90 && c.Latitude <= 90) {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if !(c.Longitude >= -180 && c.Longitude <= 180) {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	return nil
}

// Fix is one location estimate reported by the tracking engine.
type Fix struct {
	UUID      string     `json:"uuid"`
	Timestamp string     `json:"timestamp"`
	Coords    Coordinate `json:"coords"`
	Sample    bool       `json:"sample"`
	Odometer  float64    `json:"odometer"`
}

type LocationMarker struct {
	ID             string     `json:"id"`
	TimestampLabel string     `json:"timestamp_label"`
	Coordinate     Coordinate `json:"coordinate"`
}

type StationaryRegion struct {
	RadiusMeters    float64    `json:"radius_meters"`
	Center          Coordinate `json:"center"`
	SampleTimestamp string     `json:"sample_timestamp"`
}

// Visible reports whether the region should be drawn at all.
func (r StationaryRegion) Visible() bool {
	return r.RadiusMeters > 0 && r.SampleTimestamp != ""
}
