// Package gltf reads the geometry bounds of glTF 2.0 assets without loading
// their buffers. Bounds come from the min/max that the format requires on
// every POSITION accessor.
package gltf

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"

	"scene-service/internal/geometry"
)

const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	chunkJSON    = 0x4E4F534A // "JSON"
	headerLength = 12
)

var (
	ErrNotGLB   = errors.New("not a binary glTF file")
	ErrNoBounds = errors.New("asset has no position bounds")
)

type document struct {
	Accessors []accessor `json:"accessors"`
	Meshes    []mesh     `json:"meshes"`
}

type accessor struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

type mesh struct {
	Primitives []struct {
		Attributes map[string]int `json:"attributes"`
	} `json:"primitives"`
}

// ReadBounds returns the local-space box enclosing every mesh primitive of a
// .glb stream or a .gltf JSON document.
func ReadBounds(r io.Reader) (geometry.AABB, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return geometry.AABB{}, errors.Wrap(err, "reading asset failed")
	}

	raw := data
	if IsGLB(data) {
		if raw, err = jsonChunk(data); err != nil {
			return geometry.AABB{}, err
		}
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return geometry.AABB{}, errors.Wrap(err, "decoding gltf json failed")
	}
	return doc.bounds()
}

// IsGLB reports whether data starts with a binary glTF header.
func IsGLB(data []byte) bool {
	return len(data) >= headerLength && binary.LittleEndian.Uint32(data) == glbMagic
}

func jsonChunk(data []byte) ([]byte, error) {
	if version := binary.LittleEndian.Uint32(data[4:]); version != glbVersion {
		return nil, errors.Wrapf(ErrNotGLB, "unsupported version %d", version)
	}
	total := int(binary.LittleEndian.Uint32(data[8:]))
	if total > len(data) {
		return nil, errors.Wrap(ErrNotGLB, "truncated file")
	}

	body := data[headerLength:total]
	if len(body) < 8 {
		return nil, errors.Wrap(ErrNotGLB, "missing json chunk")
	}
	length := int(binary.LittleEndian.Uint32(body))
	kind := binary.LittleEndian.Uint32(body[4:])
	if kind != chunkJSON {
		return nil, errors.Wrap(ErrNotGLB, "first chunk is not json")
	}
	if 8+length > len(body) {
		return nil, errors.Wrap(ErrNotGLB, "truncated json chunk")
	}

	// The chunk is padded with spaces to a 4 byte boundary.
	return bytes.TrimRight(body[8:8+length], " \x00"), nil
}

func (d document) bounds() (geometry.AABB, error) {
	var box geometry.AABB
	found := false

	for _, m := range d.Meshes {
		for _, p := range m.Primitives {
			idx, ok := p.Attributes["POSITION"]
			if !ok || idx < 0 || idx >= len(d.Accessors) {
				continue
			}
			a := d.Accessors[idx]
			if len(a.Min) < 3 || len(a.Max) < 3 {
				continue
			}

			b := geometry.NewAABB(
				mgl64.Vec3{a.Min[0], a.Min[1], a.Min[2]},
				mgl64.Vec3{a.Max[0], a.Max[1], a.Max[2]},
			)
			if !found {
				box, found = b, true
				continue
			}
			box = box.Union(b)
		}
	}

	if !found {
		return geometry.AABB{}, ErrNoBounds
	}
	return box, nil
}
