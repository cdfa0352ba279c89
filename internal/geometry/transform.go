package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const fullTurn = 2 * math.Pi

// RotationMatrix builds the rotation for Euler angles applied in XYZ order,
// matching the renderer's default Euler convention.
func RotationMatrix(euler mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Rotate3DX(euler.X()).
		Mul3(mgl64.Rotate3DY(euler.Y())).
		Mul3(mgl64.Rotate3DZ(euler.Z()))
}

// WorldBounds places a local-space box at the given transform and returns the
// axis-aligned box enclosing the result. Rotated boxes are re-enclosed, so the
// returned box may be larger than the geometry; no oriented-box math is done.
func WorldBounds(local AABB, position, rotation mgl64.Vec3) AABB {
	rot := RotationMatrix(rotation)
	corners := local.Corners()
	points := make([]mgl64.Vec3, 0, len(corners))
	for _, c := range corners {
		points = append(points, rot.Mul3x1(c).Add(position))
	}
	return Enclose(points...)
}

// WrapAngle maps an angle in radians into [0, 2π).
func WrapAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	w := math.Mod(a, fullTurn)
	if w < 0 {
		w += fullTurn
	}
	if w >= fullTurn {
		w = 0
	}
	return w
}

// WrapEuler wraps each component of an Euler rotation into [0, 2π).
func WrapEuler(e mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{WrapAngle(e.X()), WrapAngle(e.Y()), WrapAngle(e.Z())}
}

// HorizontalDistance is the distance between a and b projected on the ground
// plane (y ignored).
func HorizontalDistance(a, b mgl64.Vec3) float64 {
	return math.Hypot(a.X()-b.X(), a.Z()-b.Z())
}
