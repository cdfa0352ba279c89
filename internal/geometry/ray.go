package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-12

// Ray is a half-line starting at Origin going along Direction. Direction does
// not need to be normalized.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// Plane is the set of points p with Normal·p + Constant = 0.
type Plane struct {
	Normal   mgl64.Vec3
	Constant float64
}

// GroundPlane is the horizontal plane y = 0 every model stands on.
var GroundPlane = Plane{Normal: mgl64.Vec3{0, 1, 0}}

// DistanceToPoint returns the signed distance from the plane to p.
func (p Plane) DistanceToPoint(v mgl64.Vec3) float64 {
	return p.Normal.Dot(v) + p.Constant
}

// IntersectPlane returns the point where the ray meets the plane. It reports
// false when the ray is parallel to the plane (and not lying on it) or when
// the plane is behind the ray origin.
func (r Ray) IntersectPlane(p Plane) (mgl64.Vec3, bool) {
	denominator := p.Normal.Dot(r.Direction)
	if math.Abs(denominator) < epsilon {
		if math.Abs(p.DistanceToPoint(r.Origin)) < epsilon {
			return r.Origin, true
		}
		return mgl64.Vec3{}, false
	}

	t := -(r.Origin.Dot(p.Normal) + p.Constant) / denominator
	if t < 0 {
		return mgl64.Vec3{}, false
	}
	return r.Origin.Add(r.Direction.Mul(t)), true
}

// IntersectGround is IntersectPlane against GroundPlane.
func (r Ray) IntersectGround() (mgl64.Vec3, bool) {
	return r.IntersectPlane(GroundPlane)
}
