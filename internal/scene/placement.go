package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"scene-service/internal/geometry"
)

const spiralArmLength = 8

// PlacementConfig drives the spiral search for a free slot.
type PlacementConfig struct {
	Seed        mgl64.Vec3
	StepSize    float64
	MaxAttempts int
}

func DefaultPlacementConfig() PlacementConfig {
	return PlacementConfig{
		Seed:        mgl64.Vec3{5, 0, -5},
		StepSize:    2,
		MaxAttempts: 50,
	}
}

// Placement is the outcome of a free-slot search.
type Placement struct {
	Position mgl64.Vec3
	Attempts int

	// Found is false when every attempt was occupied and Position is the
	// last candidate, accepted anyway.
	Found bool
}

// SpiralCandidate returns the candidate tried at the given attempt. Attempt 0
// is the seed; afterwards the angle advances a quarter turn per attempt and
// the radius grows by one step every eight attempts.
func SpiralCandidate(cfg PlacementConfig, attempt int) mgl64.Vec3 {
	if attempt == 0 {
		return cfg.Seed
	}
	angle := float64(attempt) * 0.5 * math.Pi
	radius := cfg.StepSize * float64(1+attempt/spiralArmLength)
	return mgl64.Vec3{
		cfg.Seed.X() + math.Cos(angle)*radius,
		cfg.Seed.Y(),
		cfg.Seed.Z() + math.Sin(angle)*radius,
	}
}

// FindFreeSlot walks the spiral until a candidate is at least one step away
// (horizontally) from every obstacle. It is a pure function of its inputs.
func FindFreeSlot(cfg PlacementConfig, obstacles []mgl64.Vec3) Placement {
	candidate := cfg.Seed
	attempts := 0
	for attempts < cfg.MaxAttempts {
		if slotIsFree(candidate, obstacles, cfg.StepSize) {
			return Placement{Position: candidate, Attempts: attempts, Found: true}
		}
		attempts++
		candidate = SpiralCandidate(cfg, attempts)
	}
	return Placement{Position: candidate, Attempts: attempts}
}

func slotIsFree(candidate mgl64.Vec3, obstacles []mgl64.Vec3, minDistance float64) bool {
	for _, o := range obstacles {
		if geometry.HorizontalDistance(candidate, o) < minDistance {
			return false
		}
	}
	return true
}
