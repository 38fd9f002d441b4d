package controller

import (
	"errors"

	"github.com/smokyabdulrahman/quranlake/internal/api"
	"github.com/smokyabdulrahman/quranlake/internal/geo"
)

// Message is the user-facing text for a hard error.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOffline):
		return "No internet connection and no cached data available. Please connect to the internet to load prayer times."
	case errors.Is(err, geo.ErrPermissionDenied):
		return "Location permission denied. Please enable location access."
	case errors.Is(err, geo.ErrTimeout):
		return "Location request timed out. Please try again."
	case errors.Is(err, geo.ErrUnavailable):
		return "Location information is unavailable. Please check your internet connection."
	case errors.Is(err, geo.ErrInvalidCoordinates):
		return "Invalid coordinates received."
	case errors.Is(err, api.ErrNetwork), errors.Is(err, api.ErrInvalidResponseShape):
		return "Failed to fetch prayer times. Please check your internet connection."
	default:
		return err.Error()
	}
}

// Warning is the soft message shown when cached data stands in for a
// failed load.
func Warning(err error) string {
	switch {
	case errors.Is(err, geo.ErrPermissionDenied):
		return "Location permission denied. Using cached data."
	case errors.Is(err, geo.ErrTimeout):
		return "Location request timed out. Using cached data."
	default:
		return "Unable to access location. Using cached data."
	}
}
