package models

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// PlacedModel is one uploaded 3D model standing on the shared ground plane.
type PlacedModel struct {
	ID        string    `gorm:"type:varchar(128);primaryKey" json:"id"`
	Position  Vector3   `gorm:"embedded;embeddedPrefix:pos_" json:"position"`
	Rotation  Vector3   `gorm:"embedded;embeddedPrefix:rot_" json:"rotation"`
	AssetPath string    `gorm:"not null" json:"assetPath"`
	Hidden    bool      `gorm:"not null;default:false" json:"hidden"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Vector3 is a plain x/y/z triple as stored and exchanged over the API.
type Vector3 struct {
	X float64 `json:"x" gorm:"type:double precision"`
	Y float64 `json:"y" gorm:"type:double precision"`
	Z float64 `json:"z" gorm:"type:double precision"`
}

func NewVector3(v mgl64.Vec3) Vector3 {
	return Vector3{X: v.X(), Y: v.Y(), Z: v.Z()}
}

func (v Vector3) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// DefaultModels is the scene shown when nothing has been stored yet or the
// store cannot be read.
func DefaultModels() []PlacedModel {
	return []PlacedModel{
		{
			ID:        "model1",
			Position:  Vector3{X: -2},
			AssetPath: "/models/model1.glb",
		},
		{
			ID:        "model2",
			Position:  Vector3{X: 2},
			AssetPath: "/models/model2.glb",
		},
	}
}
