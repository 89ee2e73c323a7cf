package domain

const (
	SettingEmail               = "email"
	SettingHideMarkers         = "hideMarkers"
	SettingHidePolyline        = "hidePolyline"
	SettingShowGeofenceHits    = "showGeofenceHits"
	SettingFollowsUserLocation = "followsUserLocation"
)

type Settings struct {
	Email               string `json:"email"`
	HideMarkers         bool   `json:"hideMarkers"`
	HidePolyline        bool   `json:"hidePolyline"`
	ShowGeofenceHits    bool   `json:"showGeofenceHits"`
	FollowsUserLocation bool   `json:"followsUserLocation"`
}

// Bool returns the named boolean setting. ok is false for unknown or non-boolean names.
func (s Settings) Bool(name string) (value bool, ok bool) {
	switch name {
	case SettingHideMarkers:
		return s.HideMarkers, true
	case SettingHidePolyline:
		return s.HidePolyline, true
	case SettingShowGeofenceHits:
		return s.ShowGeofenceHits, true
	case SettingFollowsUserLocation:
		return s.FollowsUserLocation, true
	}
	return false, false
}

// With returns a copy of s with the named setting replaced. Values of the wrong type
// and unknown names leave s unchanged and report false.
func (s Settings) With(name string, value any) (Settings, bool) {
	if name == SettingEmail {
		v, ok := value.(string)
		if !ok {
			return s, false
		}
		s.Email = v
		return s, true
	}

	b, ok := value.(bool)
	if !ok {
		return s, false
	}
	switch name {
	case SettingHideMarkers:
		s.HideMarkers = b
	case SettingHidePolyline:
		s.HidePolyline = b
	case SettingShowGeofenceHits:
		s.ShowGeofenceHits = b
	case SettingFollowsUserLocation:
		s.FollowsUserLocation = b
	default:
		return s, false
	}
	return s, true
}
