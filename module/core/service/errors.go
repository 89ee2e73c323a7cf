package service

import "errors"

var (
	ErrUnknownGeofence    = errors.New("crossing for unknown geofence")
	ErrDuplicateCrossing  = errors.New("duplicate crossing")
	ErrUnsupportedAction  = errors.New("unsupported crossing action")
	ErrInvalidGeofence    = errors.New("invalid geofence")
	ErrUnknownSetting     = errors.New("unknown setting")
	ErrUnhandledEvent     = errors.New("unhandled event")
	ErrMissingEmail       = errors.New("no email address configured")
	ErrLocationsDBEmpty   = errors.New("locations database is empty")
	ErrSyncInProgress     = errors.New("sync already in progress")
	ErrNotificationBuffer = errors.New("subscriber buffer full")
)
