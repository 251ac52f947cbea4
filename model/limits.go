package model

// DriveLimits holds the configurable physical limits of one drive. The config
// command can overwrite them at runtime, which is why they are data rather
// than constants.
type DriveLimits struct {
	// VMax is the maximum speed [rad/s].
	VMax float64
	// AMax is the maximum acceleration [rad/s^2]. The analytic profile is
	// constant-velocity, so this is carried for protocol compatibility only.
	AMax float64
	// JMax is the maximum jerk [rad/s^3]. Carried for protocol compatibility.
	JMax float64
}

// DefaultAzimuthLimits returns the limits the azimuth drive starts with.
func DefaultAzimuthLimits() DriveLimits {
	return DriveLimits{VMax: 1.5, AMax: 0.75, JMax: 5.0}
}

// DefaultElevationLimits returns the limits the light/wind screen starts with.
func DefaultElevationLimits() DriveLimits {
	return DriveLimits{VMax: 1.75, AMax: 0.875, JMax: 3.5}
}
