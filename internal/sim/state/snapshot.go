package state

// Snapshot is one telemetry cycle's fully-assembled status report for a
// single subsystem. It is constructed fresh every cycle from the engine state
// and the synthetic sensor model, never mutated after construction, and
// superseded by the next cycle's snapshot. The JSON field names are part of
// the dome control protocol and must be preserved exactly.
type Snapshot struct {
	Status                string    `json:"status"`
	Error                 []string  `json:"error,omitempty"`
	Fans                  string    `json:"fans,omitempty"`
	Inflate               string    `json:"inflate,omitempty"`
	PositionActual        float64   `json:"positionActual"`
	PositionCommanded     float64   `json:"positionCommanded"`
	VelocityActual        float64   `json:"velocityActual"`
	VelocityCommanded     float64   `json:"velocityCommanded"`
	DriveTorqueActual     []float64 `json:"driveTorqueActual"`
	DriveTorqueCommanded  []float64 `json:"driveTorqueCommanded"`
	DriveCurrentActual    []float64 `json:"driveCurrentActual"`
	DriveTemperature      []float64 `json:"driveTemperature"`
	EncoderHeadRaw        []float64 `json:"encoderHeadRaw"`
	EncoderHeadCalibrated []float64 `json:"encoderHeadCalibrated"`
	ResolverRaw           []float64 `json:"resolverRaw"`
	ResolverCalibrated    []float64 `json:"resolverCalibrated"`
	Timestamp             float64   `json:"timestamp"`
}

// CycleSnapshots bundles the per-subsystem snapshots assembled in one
// telemetry cycle, keyed by the subsystem names the protocol uses.
type CycleSnapshots struct {
	AMCS  *Snapshot `json:"AMCS,omitempty"`
	LWSCS *Snapshot `json:"LWSCS,omitempty"`
}
