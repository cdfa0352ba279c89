package gltf

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

const twoMeshes = `{
	"asset": {"version": "2.0"},
	"accessors": [
		{"count": 3, "min": [-1, 0, -0.5], "max": [1, 2, 0.5]},
		{"count": 3},
		{"count": 3, "min": [0, -1, 0], "max": [3, 1, 1]}
	],
	"meshes": [
		{"primitives": [{"attributes": {"POSITION": 0, "NORMAL": 1}}]},
		{"primitives": [{"attributes": {"POSITION": 2}}, {"attributes": {"POSITION": 9}}]}
	]
}`

func buildGLB(t *testing.T, doc string, version uint32) []byte {
	chunk := []byte(doc)
	for len(chunk)%4 != 0 {
		chunk = append(chunk, ' ')
	}

	var buf bytes.Buffer
	write := func(v uint32) {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	write(glbMagic)
	write(version)
	write(uint32(headerLength + 8 + len(chunk)))
	write(uint32(len(chunk)))
	write(chunkJSON)
	buf.Write(chunk)
	return buf.Bytes()
}

func TestReadBoundsFromGLB(t *testing.T) {
	data := buildGLB(t, twoMeshes, glbVersion)
	require.True(t, IsGLB(data))

	box, err := ReadBounds(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, mgl64.Vec3{-1, -1, -0.5}, box.Min)
	require.Equal(t, mgl64.Vec3{3, 2, 1}, box.Max)
}

func TestReadBoundsFromGLTF(t *testing.T) {
	box, err := ReadBounds(bytes.NewReader([]byte(twoMeshes)))
	require.NoError(t, err)
	require.Equal(t, mgl64.Vec3{3, 2, 1}, box.Max)
}

func TestReadBoundsErrors(t *testing.T) {
	_, err := ReadBounds(bytes.NewReader(buildGLB(t, twoMeshes, 1)))
	require.ErrorIs(t, err, ErrNotGLB)

	truncated := buildGLB(t, twoMeshes, glbVersion)
	_, err = ReadBounds(bytes.NewReader(truncated[:40]))
	require.ErrorIs(t, err, ErrNotGLB)

	_, err = ReadBounds(bytes.NewReader(buildGLB(t, `{"meshes": []}`, glbVersion)))
	require.ErrorIs(t, err, ErrNoBounds)

	_, err = ReadBounds(bytes.NewReader([]byte("not json")))
	require.Error(t, err)
}
