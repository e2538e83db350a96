package pricing

import (
	"math"

	"github.com/flyttio/priskalk/internal/rates"
)

// QuoteRequest carries the physical parameters of one relocation job. It is
// constructed per calculation call and never stored by this package.
type QuoteRequest struct {
	VolumeM3     float64 `json:"volumeM3"`
	FromFloor    int     `json:"fromFloor"`
	ToFloor      int     `json:"toFloor"`
	ElevatorFrom bool    `json:"elevatorFrom"`
	ElevatorTo   bool    `json:"elevatorTo"`

	// TransportMinutes is the drive time of the round trip. It is billed as
	// labor under the time-charged transport modes and ignored under the
	// per-km mode.
	TransportMinutes float64 `json:"transportMinutes"`
	KmRoundtrip      float64 `json:"kmRoundtrip"`

	Heavy80Count  int `json:"heavy80Count"`
	Heavy150Count int `json:"heavy150Count"`

	SelectedFees map[string]bool `json:"selectedFees,omitempty"`
}

// Buffer types reported in an estimate.
const (
	BufferNone    = "none"
	BufferMinutes = "minutes"
	BufferPercent = "percent"
)

// BufferSpec describes the slack applied on top of the worked minutes.
type BufferSpec struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// Estimate is the crew and time requirement of a job before any money enters
// the picture.
type Estimate struct {
	Crew       int        `json:"crew"`
	LaborHours float64    `json:"laborHours"`
	Buffer     BufferSpec `json:"buffer"`
}

// EstimateJob derives the crew size and the load/unload labor hours for a job.
// It is deterministic and performs no I/O; hours are kept unrounded because
// rounding happens only at money boundaries.
func EstimateJob(req QuoteRequest, cfg rates.RateConfig) (Estimate, error) {
	if cfg.MaxM3PerEmployee <= 0 {
		return Estimate{}, &rates.ConfigError{Field: "maxM3PerEmployee", Reason: "must be greater than 0"}
	}
	if cfg.StandardVolumeM3 <= 0 {
		return Estimate{}, &rates.ConfigError{Field: "standardVolumeM3", Reason: "must be greater than 0"}
	}

	crew := cfg.BaseMinEmployees
	if byVolume := int(math.Ceil(req.VolumeM3 / cfg.MaxM3PerEmployee)); byVolume > crew {
		crew = byVolume
	}
	if cfg.FloorThresholdForExtraEmployee > 0 && maxStairFloor(req) >= cfg.FloorThresholdForExtraEmployee {
		crew++
	}
	if req.Heavy150Count > 0 && cfg.Heavy150.EnforceMinEmployees && cfg.Heavy150.MinEmployeesOverride > crew {
		crew = cfg.Heavy150.MinEmployeesOverride
	}
	if max := cfg.MaxCrewSize(); crew > max {
		crew = max
	}

	volumeFactor := req.VolumeM3 / cfg.StandardVolumeM3
	crewFactor := cfg.CrewFactor(crew)
	loadMinutes := cfg.BaseLoadMinutes * volumeFactor * crewFactor
	unloadMinutes := cfg.BaseUnloadMinutes * volumeFactor * crewFactor

	friction := floorFriction(req.FromFloor, req.ElevatorFrom, req.VolumeM3, cfg) +
		floorFriction(req.ToFloor, req.ElevatorTo, req.VolumeM3, cfg)

	var heavyMinutes float64
	if cfg.Heavy80.Enabled {
		heavyMinutes += cfg.Heavy80.ExtraMinutesPerItem * float64(req.Heavy80Count)
	}
	if cfg.Heavy150.Enabled {
		heavyMinutes += cfg.Heavy150.ExtraMinutesPerItem * float64(req.Heavy150Count)
	}

	laborMinutes := loadMinutes + unloadMinutes + friction + heavyMinutes

	buffer := BufferSpec{Type: BufferNone}
	switch {
	case cfg.BufferMinutes != nil:
		buffer = BufferSpec{Type: BufferMinutes, Value: *cfg.BufferMinutes}
		laborMinutes += *cfg.BufferMinutes
	case cfg.BufferPercent != nil:
		buffer = BufferSpec{Type: BufferPercent, Value: *cfg.BufferPercent}
		laborMinutes += laborMinutes * *cfg.BufferPercent / 100
	}

	return Estimate{
		Crew:       crew,
		LaborHours: laborMinutes / 60,
		Buffer:     buffer,
	}, nil
}

// floorFriction is the extra carrying time for one end of the move. An
// elevator reduces the friction by the configured multiplier; it does not
// eliminate it.
func floorFriction(floor int, elevator bool, volumeM3 float64, cfg rates.RateConfig) float64 {
	if floor <= 0 {
		return 0
	}
	minutes := float64(floor) * cfg.MinutesPerFloorPerM3 * volumeM3
	if elevator {
		minutes *= cfg.ElevatorMultiplier
	}
	return minutes
}

func maxStairFloor(req QuoteRequest) int {
	floor := 0
	if !req.ElevatorFrom && req.FromFloor > floor {
		floor = req.FromFloor
	}
	if !req.ElevatorTo && req.ToFloor > floor {
		floor = req.ToFloor
	}
	return floor
}
